package config

import "fmt"

// TargetOptions carries explicitly supplied endpoint settings.
// Empty fields fall back to the environment.
type TargetOptions struct {
	EndpointURI string
	APIKey      string
}

// Target is the resolved location and credential of a managed endpoint.
// It is fixed once resolved.
type Target struct {
	endpointURI string
	apiKey      string
}

// EndpointURI returns the scoring URI.
func (t Target) EndpointURI() string { return t.endpointURI }

// APIKey returns the bearer credential.
func (t Target) APIKey() string { return t.apiKey }

// ResolveTarget resolves the endpoint URI and key. Explicit options win over
// AZURE_ML_MANAGED_ENDPOINT and AZURE_ML_KEY.
func ResolveTarget(opts TargetOptions) (Target, error) {
	uri, err := RequiredValue(opts.EndpointURI, EndpointURIEnv, "endpoint URI")
	if err != nil {
		return Target{}, err
	}
	key, err := RequiredValue(opts.APIKey, APIKeyEnv, "API key")
	if err != nil {
		return Target{}, err
	}
	return Target{endpointURI: uri, apiKey: key}, nil
}

// RequiredValue returns explicit if set, otherwise the value of envVar.
// It fails when neither source provides one.
func RequiredValue(explicit, envVar, what string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if v := getEnv(envVar, ""); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%s is required: pass it explicitly or set %s", what, envVar)
}
