package infra

import "context"

type GatewayClientInterface interface {
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error)
	Validate(ctx context.Context, valID string) (*ValidationResult, error)
}

var _ GatewayClientInterface = (*GatewayClient)(nil)
