package notify

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"hrms-dispatch/internal/common/config"
	"hrms-dispatch/internal/common/errors"
	"hrms-dispatch/internal/common/logger"
)

// SNSAPI is the SNS surface the push sender needs, mockable in tests.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// PushSender publishes through SNS. An empty recipient broadcasts to the
// configured topic; an endpoint ARN targets a single device; anything else
// is treated as a user id filter attribute on the topic.
type PushSender struct {
	client   SNSAPI
	resolver *TemplateResolver
	cfg      config.PushConfig
	logger   logger.Logger
}

func NewPushSender(client SNSAPI, resolver *TemplateResolver, cfg config.PushConfig, log logger.Logger) *PushSender {
	return &PushSender{client: client, resolver: resolver, cfg: cfg, logger: log}
}

func (s *PushSender) Channel() string { return "push" }

func (s *PushSender) Send(ctx context.Context, ev Event) Outcome {
	if !s.cfg.Enabled {
		return skipped()
	}

	subject, body, ok, err := resolveContent(ctx, s.resolver, "push", ev)
	if err != nil {
		return failed(err)
	}
	if !ok {
		s.logger.Warn("push skipped, no template and no fallback", map[string]interface{}{
			"slug": ev.TemplateSlug,
		})
		return skipped()
	}

	input := &sns.PublishInput{
		Message: aws.String(body),
	}
	if subject != "" {
		input.Subject = aws.String(subject)
	}

	switch {
	case ev.Recipient == "":
		if s.cfg.TopicARN == "" {
			return skipped()
		}
		input.TopicArn = aws.String(s.cfg.TopicARN)
	case strings.HasPrefix(ev.Recipient, "arn:"):
		input.TargetArn = aws.String(ev.Recipient)
	default:
		if s.cfg.TopicARN == "" {
			return skipped()
		}
		input.TopicArn = aws.String(s.cfg.TopicARN)
		input.MessageAttributes = map[string]types.MessageAttributeValue{
			"uid": {
				DataType:    aws.String("String"),
				StringValue: aws.String(ev.Recipient),
			},
		}
	}

	if _, err := s.client.Publish(ctx, input); err != nil {
		return failed(errors.NewSendFailedError("push", err))
	}
	return sent()
}
