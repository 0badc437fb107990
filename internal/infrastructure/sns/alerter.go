package sns

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/campus-auth-api/internal/config"
)

// Alerter notifies operators about conditions that need a human, such as a
// mail message exhausting its delivery attempts.
type Alerter interface {
	Alert(ctx context.Context, subject, message string) error
}

type publisher struct {
	client   *sns.Client
	topicArn string
}

// NewAlerter builds an SNS-backed Alerter publishing to cfg.SNSTopicArn.
// When cfg.AWSEndpointURL is set (LocalStack), it overrides the endpoint.
func NewAlerter(cfg *config.Config) (Alerter, error) {
	if cfg.SNSTopicArn == "" {
		return nil, errors.New("sns: topic ARN not configured")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.SNSRegion),
	}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, err
	}

	clientOpts := []func(*sns.Options){}
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		})
	}

	return &publisher{
		client:   sns.NewFromConfig(awsCfg, clientOpts...),
		topicArn: cfg.SNSTopicArn,
	}, nil
}

func (p *publisher) Alert(ctx context.Context, subject, message string) error {
	_, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicArn),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	return err
}
