// internal/common/aws/clients.go
package aws

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// Clients bundles the AWS service clients the channels use: SES for email
// and SNS for push. Both are created from one shared credential chain.
type Clients struct {
	SES *ses.Client
	SNS *sns.Client
}

// NewClients loads the default AWS config for the region and constructs the
// service clients.
func NewClients(ctx context.Context, region string) (*Clients, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}

	return &Clients{
		SES: ses.NewFromConfig(cfg),
		SNS: sns.NewFromConfig(cfg),
	}, nil
}
