package config

import (
	"context"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/pkg/errors"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/lib-core-golang/diag"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/version"
)

// SSM GetParameters accepts at most 10 names per call
const ssmMaxNamesPerCall = 10

type ssmClient interface {
	GetParametersWithContext(ctx aws.Context, input *ssm.GetParametersInput, opts ...request.Option) (*ssm.GetParametersOutput, error)
}

// headerTransport adds fixed headers to every request to a SSM proxy
type headerTransport struct {
	headers http.Header
	next    http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for name, values := range t.headers {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	return t.next.RoundTrip(req)
}

func newSSMProxyTransport(authToken string, next http.RoundTripper) http.RoundTripper {
	headers := http.Header{}
	headers.Set(awsSSMEndpointTokenHeaderName, authToken)
	headers.Set("x-requested-by", version.AppName+"("+version.Version+")")
	return &headerTransport{headers: headers, next: next}
}

func newSSMClient() (ssmClient, error) {
	s, err := session.NewSession()
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create aws session")
	}

	clientCfg := aws.NewConfig()
	if proxyURL := os.Getenv(awsSSMEndpointURLVar); proxyURL != "" {
		logger.Info(nil, "Reading SSM parameters through %v", proxyURL)
		clientCfg = clientCfg.
			WithEndpoint(proxyURL).
			WithHTTPClient(&http.Client{
				Transport: newSSMProxyTransport(os.Getenv(awsSSMEndpointTokenVar), http.DefaultTransport),
			})
	}
	return ssm.New(s, clientCfg), nil
}

type awsSSMSource struct {
	appEnv    AppEnv
	ssmClient ssmClient
}

func (s *awsSSMSource) serviceScopedName(p param) string {
	return "/" + s.appEnv.Name + "/" + p.service() + "/" + p.key()
}

func (s *awsSSMSource) clusterScopedName(p param) string {
	return "/" + s.appEnv.Name + "/" + s.appEnv.ClusterName + "/" + p.service() + "/" + p.key()
}

// chunk splits names into batches acceptable by a single GetParameters call
func chunk(names []*string, size int) [][]*string {
	batches := make([][]*string, 0, len(names)/size+1)
	for len(names) > size {
		batches = append(batches, names[:size])
		names = names[size:]
	}
	if len(names) > 0 {
		batches = append(batches, names)
	}
	return batches
}

/*
GetParameters resolves each param by two names:

	/<env>/<service>/<key>
	/<env>/<cluster>/<service>/<key>

the cluster specific one wins if both are present
*/
func (s *awsSSMSource) GetParameters(ctx context.Context, params []param) (map[param]interface{}, error) {
	names := make([]*string, 0, len(params)*2)
	serviceScoped := make(map[string]param, len(params))
	clusterScoped := make(map[string]param, len(params))
	for _, p := range params {
		name := s.serviceScopedName(p)
		names = append(names, aws.String(name))
		serviceScoped[name] = p
		if s.appEnv.ClusterName != "" {
			name = s.clusterScopedName(p)
			names = append(names, aws.String(name))
			clusterScoped[name] = p
		}
	}

	result := make(map[param]interface{}, len(params))
	fromCluster := make(map[param]bool, len(params))
	for _, batch := range chunk(names, ssmMaxNamesPerCall) {
		logger.WithData(diag.MsgData{"paths": batch}).Debug(ctx, "Attempting to get SSM parameters")
		output, err := s.ssmClient.GetParametersWithContext(ctx, &ssm.GetParametersInput{
			Names:          batch,
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			return nil, errors.Wrap(err, "Failed to get SSM parameters")
		}
		for _, awsParam := range output.Parameters {
			name, value := aws.StringValue(awsParam.Name), aws.StringValue(awsParam.Value)
			if p, ok := clusterScoped[name]; ok {
				result[p] = value
				fromCluster[p] = true
			} else if p, ok := serviceScoped[name]; ok && !fromCluster[p] {
				result[p] = value
			}
		}
	}
	return result, nil
}

// AwsSSMOpt is an option of an aws ssm config source
type AwsSSMOpt func(s *awsSSMSource)

// AwsSSMOpts are options of an aws ssm source
var AwsSSMOpts = struct {
	// WithAppEnv option will sent the app env
	WithAppEnv func(appEnv AppEnv) AwsSSMOpt

	withSSMClient func(client ssmClient) AwsSSMOpt
}{
	WithAppEnv: func(appEnv AppEnv) AwsSSMOpt {
		return func(s *awsSSMSource) {
			s.appEnv = appEnv
		}
	},
	withSSMClient: func(client ssmClient) AwsSSMOpt {
		return func(s *awsSSMSource) {
			s.ssmClient = client
		}
	},
}

// NewAWSSSMSource creates a source that reads params from aws SSM.
func NewAWSSSMSource(opts ...AwsSSMOpt) (Source, error) {
	source := &awsSSMSource{}

	for _, opt := range opts {
		opt(source)
	}

	if source.ssmClient == nil {
		client, err := newSSMClient()
		if err != nil {
			return nil, err
		}
		source.ssmClient = client
	}

	return source, nil
}
