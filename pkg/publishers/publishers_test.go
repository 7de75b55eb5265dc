package publishers

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRegistryEnabledFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: http2
    type: http
    enabled: true
    http:
      url: https://example.com/2
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "http2" {
		t.Fatalf("expected only http2 enabled, got %#v", enabled)
	}
}

func TestValidatePublisherConfigRejectsMissingHTTP(t *testing.T) {
	err := validatePublisherConfig(PublisherConfig{
		ID:   "h1",
		Type: TypeHTTP,
	})
	if err == nil {
		t.Fatalf("expected validation error for missing http block")
	}
}

func TestLoadRegistryMissingFileIsEmpty(t *testing.T) {
	reg, err := LoadRegistry(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if len(reg.Enabled()) != 0 {
		t.Fatalf("expected no publishers")
	}
}

func TestLoadRegistryAllSinkTypes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publishers.yaml")
	raw := `
publishers:
  - id: q
    type: SQS
    sqs:
      uri: https://sqs.example/q
      region: us-east-1
      credentials:
        access_key_id: " AKID "
        secret_access_key: secret
  - id: t
    type: sns
    sns:
      topic_arn: arn:aws:sns:us-east-1:123:t
      region: us-east-1
      credentials:
        access_key_id: only-half
  - id: g
    type: gcp_pubsub
    gcp_pubsub:
      project_id: proj
      topic: callbacks
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	q, ok := reg.ByID("q")
	if !ok || q.Type != TypeSQS {
		t.Fatalf("expected sqs publisher, got %#v", q)
	}
	if q.SQS.Credentials == nil || q.SQS.Credentials.AccessKeyID != "AKID" {
		t.Fatalf("expected trimmed static credentials, got %#v", q.SQS.Credentials)
	}
	sns, _ := reg.ByID("t")
	if sns.SNS.Credentials != nil {
		t.Fatalf("expected partial credentials to be dropped")
	}
	if len(reg.Enabled()) != 3 {
		t.Fatalf("expected 3 enabled publishers")
	}
}

func TestValidatePublisherConfigRejectsIncompleteSinks(t *testing.T) {
	cases := []PublisherConfig{
		{ID: "s", Type: TypeSNS, SNS: &SNSPublisherConfig{Region: "us-east-1"}},
		{ID: "g", Type: TypeGCPPubSub, GCPPubSub: &GCPPubSubPublisherConfig{Topic: "t"}},
		{ID: "q", Type: TypeSQS, SQS: &SQSPublisherConfig{QueueURL: "https://q"}},
		{ID: "x", Type: "kafka"},
	}
	for _, cfg := range cases {
		if err := validatePublisherConfig(cfg); err == nil {
			t.Fatalf("expected validation error for %s", cfg.ID)
		}
	}
}
