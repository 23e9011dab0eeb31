// Package aws builds the AWS clients used for application notifications.
package aws

import (
	"context"
	"errors"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

// Session resolves the AWS configuration once and hands it to every client
// built from it.
type Session struct {
	cfg awssdk.Config
}

func NewSession(ctx context.Context, region string) (*Session, error) {
	if region == "" {
		return nil, errors.New("aws region is required")
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Session{cfg: cfg}, nil
}

func (s *Session) Region() string { return s.cfg.Region }
