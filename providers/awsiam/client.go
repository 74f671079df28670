package awsiam

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"

	"github.com/accord-io/accord/internal/engine"
	"github.com/accord-io/accord/internal/model"
	"github.com/accord-io/accord/internal/provider"
)

// Fetch reads the full remote representation of one role: the role
// itself, then tags, managed-policy attachments and inline policies in
// parallel.
func (p *Provider) Fetch(ctx context.Context, acct model.Account, resourceType, resourceID string) (*model.RemoteResource, error) {
	if resourceType != RoleType {
		return nil, provider.Failure("fetch", fmt.Errorf("unsupported resource type %s", resourceType))
	}
	cs, err := p.ensure(ctx, acct)
	if err != nil {
		return nil, err
	}

	out, err := cs.iam.GetRole(ctx, &iam.GetRoleInput{RoleName: &resourceID})
	if err != nil {
		return nil, classify("get role "+resourceID, err)
	}
	role := out.Role

	var (
		tags    map[string]string
		managed []string
		inline  map[string]string
	)
	parts := []func(context.Context) error{
		func(ctx context.Context) error {
			var err error
			tags, err = p.fetchTags(ctx, cs, resourceID)
			return err
		},
		func(ctx context.Context) error {
			var err error
			managed, err = p.fetchAttachments(ctx, cs, resourceID)
			return err
		},
		func(ctx context.Context) error {
			var err error
			inline, err = p.fetchInlinePolicies(ctx, cs, resourceID)
			return err
		},
	}
	errs := engine.Process(ctx, len(parts), parts, func(ctx context.Context, fn func(context.Context) error) error {
		return fn(ctx)
	})
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	attrs := map[string]any{
		"description":                 aws.ToString(role.Description),
		"path":                        aws.ToString(role.Path),
		"max_session_duration":        int(aws.ToInt32(role.MaxSessionDuration)),
		"assume_role_policy_document": normalizePolicy(decodeDocument(aws.ToString(role.AssumeRolePolicyDocument))),
		"tags":                        tags,
		"managed_policies":            managed,
		"inline_policies":             inline,
	}
	return &model.RemoteResource{ResourceID: resourceID, Attributes: attrs}, nil
}

func (p *Provider) fetchTags(ctx context.Context, cs *clientSet, roleName string) (map[string]string, error) {
	tags := make(map[string]string)
	var marker *string
	for {
		out, err := cs.iam.ListRoleTags(ctx, &iam.ListRoleTagsInput{RoleName: &roleName, Marker: marker})
		if err != nil {
			return nil, classify("list role tags "+roleName, err)
		}
		for _, t := range out.Tags {
			tags[aws.ToString(t.Key)] = aws.ToString(t.Value)
		}
		if !out.IsTruncated {
			return tags, nil
		}
		marker = out.Marker
	}
}

func (p *Provider) fetchAttachments(ctx context.Context, cs *clientSet, roleName string) ([]string, error) {
	var arns []string
	var marker *string
	for {
		out, err := cs.iam.ListAttachedRolePolicies(ctx, &iam.ListAttachedRolePoliciesInput{RoleName: &roleName, Marker: marker})
		if err != nil {
			return nil, classify("list attached policies "+roleName, err)
		}
		for _, a := range out.AttachedPolicies {
			arns = append(arns, aws.ToString(a.PolicyArn))
		}
		if !out.IsTruncated {
			return arns, nil
		}
		marker = out.Marker
	}
}

func (p *Provider) fetchInlinePolicies(ctx context.Context, cs *clientSet, roleName string) (map[string]string, error) {
	inline := make(map[string]string)
	var marker *string
	for {
		out, err := cs.iam.ListRolePolicies(ctx, &iam.ListRolePoliciesInput{RoleName: &roleName, Marker: marker})
		if err != nil {
			return nil, classify("list inline policies "+roleName, err)
		}
		for _, name := range out.PolicyNames {
			pol, err := cs.iam.GetRolePolicy(ctx, &iam.GetRolePolicyInput{RoleName: &roleName, PolicyName: &name})
			if err != nil {
				return nil, classify("get inline policy "+name, err)
			}
			inline[name] = normalizePolicy(decodeDocument(aws.ToString(pol.PolicyDocument)))
		}
		if !out.IsTruncated {
			return inline, nil
		}
		marker = out.Marker
	}
}

// Create provisions the role and its declared attachments, returning the
// new ARN.
func (p *Provider) Create(ctx context.Context, acct model.Account, props model.Properties) (string, error) {
	role, ok := props.(*RoleProperties)
	if !ok {
		return "", provider.Failure("create", fmt.Errorf("unsupported properties type %T", props))
	}
	cs, err := p.ensure(ctx, acct)
	if err != nil {
		return "", err
	}

	view := role.DiffableView(acct)
	roleName := acct.Resolve(role.RoleName)

	input := &iam.CreateRoleInput{
		RoleName: &roleName,
		Path:     aws.String(view["path"].(string)),
	}
	if doc := view["assume_role_policy_document"].(string); doc != "" {
		input.AssumeRolePolicyDocument = &doc
	}
	if desc := view["description"].(string); desc != "" {
		input.Description = &desc
	}
	input.MaxSessionDuration = aws.Int32(int32(view["max_session_duration"].(int)))
	for k, v := range view["tags"].(map[string]string) {
		input.Tags = append(input.Tags, iamtypes.Tag{Key: aws.String(k), Value: aws.String(v)})
	}

	out, err := cs.iam.CreateRole(ctx, input)
	if err != nil {
		return "", classify("create role "+roleName, err)
	}

	for _, arn := range view["managed_policies"].([]string) {
		if _, err := cs.iam.AttachRolePolicy(ctx, &iam.AttachRolePolicyInput{
			RoleName:  &roleName,
			PolicyArn: aws.String(arn),
		}); err != nil {
			return aws.ToString(out.Role.Arn), classify("attach policy "+arn, err)
		}
	}
	for name, doc := range view["inline_policies"].(map[string]string) {
		if _, err := cs.iam.PutRolePolicy(ctx, &iam.PutRolePolicyInput{
			RoleName:       &roleName,
			PolicyName:     aws.String(name),
			PolicyDocument: aws.String(doc),
		}); err != nil {
			return aws.ToString(out.Role.Arn), classify("put inline policy "+name, err)
		}
	}

	return aws.ToString(out.Role.Arn), nil
}

func (p *Provider) Update(ctx context.Context, acct model.Account, resourceType, resourceID, attribute string, newValue any) error {
	cs, err := p.ensure(ctx, acct)
	if err != nil {
		return err
	}

	switch attribute {
	case "description":
		_, err := cs.iam.UpdateRole(ctx, &iam.UpdateRoleInput{
			RoleName:    &resourceID,
			Description: aws.String(fmt.Sprintf("%v", newValue)),
		})
		return classifyNil("update description", err)
	case "max_session_duration":
		seconds, convErr := toInt32(newValue)
		if convErr != nil {
			return provider.Failure("update max_session_duration", convErr)
		}
		_, err := cs.iam.UpdateRole(ctx, &iam.UpdateRoleInput{
			RoleName:           &resourceID,
			MaxSessionDuration: aws.Int32(seconds),
		})
		return classifyNil("update max_session_duration", err)
	case "assume_role_policy_document":
		_, err := cs.iam.UpdateAssumeRolePolicy(ctx, &iam.UpdateAssumeRolePolicyInput{
			RoleName:       &resourceID,
			PolicyDocument: aws.String(fmt.Sprintf("%v", newValue)),
		})
		return classifyNil("update assume role policy", err)
	case "path":
		return provider.Failure("update path", fmt.Errorf("IAM role path cannot be changed in place"))
	}
	return provider.Failure("update", fmt.Errorf("unknown attribute %s", attribute))
}

func (p *Provider) Attach(ctx context.Context, acct model.Account, resourceType, resourceID, attribute, item string, value any) error {
	cs, err := p.ensure(ctx, acct)
	if err != nil {
		return err
	}

	switch attribute {
	case "managed_policies":
		_, err := cs.iam.AttachRolePolicy(ctx, &iam.AttachRolePolicyInput{
			RoleName:  &resourceID,
			PolicyArn: &item,
		})
		return classifyNil("attach policy "+item, err)
	case "tags":
		_, err := cs.iam.TagRole(ctx, &iam.TagRoleInput{
			RoleName: &resourceID,
			Tags: []iamtypes.Tag{{
				Key:   &item,
				Value: aws.String(fmt.Sprintf("%v", value)),
			}},
		})
		return classifyNil("tag role", err)
	case "inline_policies":
		_, err := cs.iam.PutRolePolicy(ctx, &iam.PutRolePolicyInput{
			RoleName:       &resourceID,
			PolicyName:     &item,
			PolicyDocument: aws.String(fmt.Sprintf("%v", value)),
		})
		return classifyNil("put inline policy "+item, err)
	}
	return provider.Failure("attach", fmt.Errorf("unknown attribute %s", attribute))
}

func (p *Provider) Detach(ctx context.Context, acct model.Account, resourceType, resourceID, attribute, item string) error {
	cs, err := p.ensure(ctx, acct)
	if err != nil {
		return err
	}

	switch attribute {
	case "managed_policies":
		_, err := cs.iam.DetachRolePolicy(ctx, &iam.DetachRolePolicyInput{
			RoleName:  &resourceID,
			PolicyArn: &item,
		})
		return classifyNil("detach policy "+item, err)
	case "tags":
		_, err := cs.iam.UntagRole(ctx, &iam.UntagRoleInput{
			RoleName: &resourceID,
			TagKeys:  []string{item},
		})
		return classifyNil("untag role", err)
	case "inline_policies":
		_, err := cs.iam.DeleteRolePolicy(ctx, &iam.DeleteRolePolicyInput{
			RoleName:   &resourceID,
			PolicyName: &item,
		})
		return classifyNil("delete inline policy "+item, err)
	}
	return provider.Failure("detach", fmt.Errorf("unknown attribute %s", attribute))
}

// Delete removes the role itself; the engine has already detached
// attachments, tags and inline policies.
func (p *Provider) Delete(ctx context.Context, acct model.Account, resourceType, resourceID string) error {
	cs, err := p.ensure(ctx, acct)
	if err != nil {
		return err
	}
	_, err = cs.iam.DeleteRole(ctx, &iam.DeleteRoleInput{RoleName: &resourceID})
	return classifyNil("delete role "+resourceID, err)
}

// ImportResource rebuilds role properties from remote state.
func (p *Provider) ImportResource(ctx context.Context, acct model.Account, resourceType, resourceID string) (model.Properties, error) {
	remote, err := p.Fetch(ctx, acct, resourceType, resourceID)
	if err != nil {
		return nil, err
	}

	role := &RoleProperties{RoleName: resourceID}
	if desc, _ := remote.Attributes["description"].(string); desc != "" {
		role.Description = desc
	}
	if path, _ := remote.Attributes["path"].(string); path != "" && path != "/" {
		role.Path = path
	}
	if max, _ := remote.Attributes["max_session_duration"].(int); max != 0 && max != 3600 {
		role.MaxSessionDuration = int32(max)
	}
	if doc, _ := remote.Attributes["assume_role_policy_document"].(string); doc != "" {
		role.AssumeRolePolicyDocument = doc
	}
	for _, arn := range remote.Attributes["managed_policies"].([]string) {
		role.ManagedPolicies = append(role.ManagedPolicies, PolicyAttachment{PolicyArn: arn})
	}
	for name, doc := range remote.Attributes["inline_policies"].(map[string]string) {
		role.InlinePolicies = append(role.InlinePolicies, InlinePolicy{PolicyName: name, PolicyDocument: doc})
	}
	for k, v := range remote.Attributes["tags"].(map[string]string) {
		role.Tags = append(role.Tags, RoleTag{Key: k, Value: v})
	}
	// Map iteration order is random; keep imported files stable.
	sort.Slice(role.InlinePolicies, func(i, j int) bool {
		return role.InlinePolicies[i].PolicyName < role.InlinePolicies[j].PolicyName
	})
	sort.Slice(role.Tags, func(i, j int) bool { return role.Tags[i].Key < role.Tags[j].Key })
	return role, nil
}

func classifyNil(op string, err error) error {
	if err == nil {
		return nil
	}
	return classify(op, err)
}

// decodeDocument reverses the URL encoding IAM applies to policy
// documents it returns.
func decodeDocument(doc string) string {
	decoded, err := url.QueryUnescape(doc)
	if err != nil {
		return doc
	}
	return decoded
}

func toInt32(v any) (int32, error) {
	switch n := v.(type) {
	case int:
		return int32(n), nil
	case int32:
		return n, nil
	case int64:
		return int32(n), nil
	case float64:
		return int32(n), nil
	case string:
		parsed, err := strconv.ParseInt(n, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		return int32(parsed), nil
	}
	return 0, fmt.Errorf("unsupported value %T", v)
}
