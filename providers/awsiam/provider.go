// Package awsiam binds the engine to AWS IAM through aws-sdk-go-v2.
// Roles are the managed resource; each account gets its own client set,
// never shared across accounts.
package awsiam

import (
	"context"
	"errors"
	"fmt"
	"sync"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"

	"github.com/accord-io/accord/internal/logging"
	"github.com/accord-io/accord/internal/model"
	"github.com/accord-io/accord/internal/provider"
)

// Name is the registry key and template type prefix.
const Name = "aws"

type clientSet struct {
	iam *iam.Client
	sts *sts.Client
}

type Provider struct {
	region  string
	profile string

	mu      sync.Mutex
	clients map[string]*clientSet // per account id
}

// New builds the AWS provider with default region and shared-config
// profile. An account can override either through its "region" or
// "profile" variable.
func New(region, profile string) *Provider {
	return &Provider{
		region:  region,
		profile: profile,
		clients: make(map[string]*clientSet),
	}
}

func (p *Provider) Name() string { return Name }

// ensure returns the per-account client set, creating and
// identity-checking it on first use. Clients are cached per account and
// never mutated afterwards, so concurrent tasks for different accounts
// stay independent.
func (p *Provider) ensure(ctx context.Context, acct model.Account) (*clientSet, error) {
	p.mu.Lock()
	if cs, ok := p.clients[acct.ID]; ok {
		p.mu.Unlock()
		return cs, nil
	}
	p.mu.Unlock()

	region := p.region
	if r := acct.Variables["region"]; r != "" {
		region = r
	}
	profile := p.profile
	if pr := acct.Variables["profile"]; pr != "" {
		profile = pr
	}

	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, provider.Failure("load AWS config", err)
	}

	cs := &clientSet{
		iam: iam.NewFromConfig(cfg),
		sts: sts.NewFromConfig(cfg),
	}

	// Refuse to reconcile with credentials for a different account.
	ident, err := cs.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, classify("get caller identity", err)
	}
	if ident.Account != nil && *ident.Account != acct.ID {
		return nil, provider.Failure("verify account",
			fmt.Errorf("credentials belong to account %s, expected %s", *ident.Account, acct.ID))
	}
	logging.Debug("aws clients ready", "account", acct.ID, "region", region)

	p.mu.Lock()
	p.clients[acct.ID] = cs
	p.mu.Unlock()
	return cs, nil
}

var throttleCodes = map[string]bool{
	"Throttling":               true,
	"ThrottlingException":      true,
	"TooManyRequestsException": true,
	"RequestLimitExceeded":     true,
	"SlowDown":                 true,
}

// classify maps an SDK error into the engine's taxonomy.
func classify(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		switch {
		case code == "NoSuchEntity" || code == "NoSuchEntityException":
			return provider.NotFound(op)
		case throttleCodes[code]:
			return provider.Throttled(op, err)
		}
	}
	return provider.Failure(op, err)
}
