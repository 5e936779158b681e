package config

import (
	"context"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// ParameterLister is the subset of the SSM client used to read a parameter tree.
type ParameterLister interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// LoadSSM reads every parameter under prefix (for example /portfolio/prod) and
// returns them keyed by the last path element, so /portfolio/prod/SESSION_SECRET
// becomes SESSION_SECRET. SecureString parameters are decrypted.
func LoadSSM(ctx context.Context, prefix string) (map[string]string, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return LoadParameters(ctx, ssm.NewFromConfig(cfg), prefix)
}

func LoadParameters(ctx context.Context, client ParameterLister, prefix string) (map[string]string, error) {
	params := make(map[string]string)
	paginator := ssm.NewGetParametersByPathPaginator(client, &ssm.GetParametersByPathInput{
		Path:           aws.String(prefix),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range page.Parameters {
			name := strings.TrimSpace(path.Base(aws.ToString(p.Name)))
			if name == "" || name == "/" || name == "." {
				continue
			}
			params[name] = aws.ToString(p.Value)
		}
	}

	log.Debug().Str("prefix", prefix).Int("count", len(params)).Msg("loaded SSM parameters")
	return params, nil
}
