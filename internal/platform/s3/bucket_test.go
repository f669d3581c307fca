package s3

import (
	"testing"

	"github.com/yungbote/labelbridge-backend/internal/pkg/logger"
)

func TestConfigValidate(t *testing.T) {
	cases := map[string]Config{
		"missing endpoint": {Bucket: "calls"},
		"missing bucket":   {Endpoint: "localhost:9000"},
		"scheme":           {Endpoint: "http://localhost:9000", Bucket: "calls"},
	}
	for name, c := range cases {
		if err := c.Validate(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestNewBucketReader(t *testing.T) {
	r, err := NewBucketReader(Config{Endpoint: "localhost:9000", Bucket: "calls", AccessKey: "k", SecretKey: "s"}, logger.Nop())
	if err != nil {
		t.Fatalf("NewBucketReader: %v", err)
	}
	if r.Describe() != "s3://calls" {
		t.Fatalf("Describe = %s", r.Describe())
	}
}
