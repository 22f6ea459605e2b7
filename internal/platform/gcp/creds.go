package gcp

import (
	"os"
	"strings"

	"google.golang.org/api/option"
)

// credentialSource resolves service account credentials from the environment.
// Inline JSON wins over a key file path; empty means application default credentials.
func credentialSource() (value string, inline bool) {
	if v := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")); v != "" {
		return v, strings.HasPrefix(v, "{")
	}
	v := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	return v, strings.HasPrefix(v, "{")
}

// CredentialMode names the credential source for startup logs without exposing it.
func CredentialMode() string {
	v, inline := credentialSource()
	switch {
	case v == "":
		return "adc"
	case inline:
		return "json"
	default:
		return "file"
	}
}

// clientOptions builds the options shared by every Google client, followed by extra.
func clientOptions(extra ...option.ClientOption) []option.ClientOption {
	var opts []option.ClientOption
	switch v, inline := credentialSource(); {
	case v == "":
	case inline:
		opts = append(opts, option.WithCredentialsJSON([]byte(v)))
	default:
		opts = append(opts, option.WithCredentialsFile(v))
	}
	if qp := strings.TrimSpace(os.Getenv("GOOGLE_CLOUD_QUOTA_PROJECT")); qp != "" {
		opts = append(opts, option.WithQuotaProject(qp))
	}
	return append(opts, extra...)
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\u00a0", " ")), " ")
}
