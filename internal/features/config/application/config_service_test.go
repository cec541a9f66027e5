package application

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"flowerchat/backend/internal/features/config/domain"
)

func TestExportPublicConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "public", "assistant.json")
	svc := NewConfigService(path)

	err := svc.ExportPublicConfig(&domain.AppConfig{
		SystemPrompt: "secret instructions",
		Greeting:     "Hello!",
		QuickReplies: []string{"For mom"},
	})
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got["greeting"] != "Hello!" {
		t.Errorf("unexpected export %s", data)
	}
	if _, leaked := got["system_prompt"]; leaked {
		t.Error("system prompt must not be exported")
	}
}

func TestExportPublicConfigDisabled(t *testing.T) {
	if err := NewConfigService("").ExportPublicConfig(&domain.AppConfig{}); err != nil {
		t.Errorf("expected no-op, got %v", err)
	}
}

func TestExportPublicConfigNilRepliesBecomeEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := NewConfigService(path).ExportPublicConfig(&domain.AppConfig{Greeting: "Hi"}); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	var got domain.PublicConfig
	_ = json.Unmarshal(data, &got)
	if got.QuickReplies == nil {
		t.Errorf("expected empty quick_replies array, got %s", data)
	}
}
