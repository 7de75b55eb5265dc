package presets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/samvad-hq/apiprobe/internal/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write presets file: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "requests.yaml", `
requests:
  - id: list-users
    name: List users
    method: get
    path: /users
    query:
      page: "2"
  - id: create-user
    method: POST
    path: /users
    body:
      name: Ada
      tags: [admin]
`)

	reg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if reg.Len() != 2 {
		t.Fatalf("expected 2 presets, got %d", reg.Len())
	}

	all := reg.All()
	if all[0].ID != "list-users" || all[1].ID != "create-user" {
		t.Fatalf("file order not preserved: %+v", all)
	}

	p, ok := reg.ByID("create-user")
	if !ok {
		t.Fatalf("expected preset create-user to be loaded")
	}
	if p.Name != "create-user" {
		t.Fatalf("expected name to default to id, got %q", p.Name)
	}

	d, err := p.Descriptor()
	if err != nil {
		t.Fatalf("Descriptor returned error: %v", err)
	}
	if d.Method != domain.MethodPost {
		t.Fatalf("unexpected method: %s", d.Method)
	}
	body, ok := d.Body.(map[string]any)
	if !ok || body["name"] != "Ada" {
		t.Fatalf("unexpected body: %#v", d.Body)
	}

	list, _ := reg.ByID("list-users")
	ld, err := list.Descriptor()
	if err != nil {
		t.Fatalf("Descriptor returned error: %v", err)
	}
	if ld.Method != domain.MethodGet || ld.Query["page"] != "2" {
		t.Fatalf("unexpected descriptor: %+v", ld)
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "requests.json", `{"requests":[{"id":"ping","method":"GET","path":"/ping"}]}`)

	reg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if ids := reg.IDs(); len(ids) != 1 || ids[0] != "ping" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	reg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if reg.Len() != 0 || reg.All() != nil {
		t.Fatalf("expected empty registry")
	}
}

func TestLoadDuplicateID(t *testing.T) {
	path := writeFile(t, "requests.yaml", `
requests:
  - id: dup
    method: GET
    path: /a
  - id: dup
    method: GET
    path: /b
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected duplicate preset error, got nil")
	}
}

func TestLoadRejectsInvalidDescriptor(t *testing.T) {
	cases := map[string]string{
		"body on GET":  "requests:\n  - id: x\n    method: GET\n    path: /a\n    body: {a: 1}\n",
		"query on PUT": "requests:\n  - id: x\n    method: PUT\n    path: /a\n    query: {a: b}\n",
		"bad method":   "requests:\n  - id: x\n    method: TRACE\n    path: /a\n",
		"no path":      "requests:\n  - id: x\n    method: GET\n",
		"no id":        "requests:\n  - method: GET\n    path: /a\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, "requests.yaml", content)
			_, err := Load(path)
			if err == nil {
				t.Fatalf("expected error")
			}
			if name != "no id" && !errors.Is(err, domain.ErrInvalidDescriptor) {
				t.Fatalf("expected ErrInvalidDescriptor, got %v", err)
			}
		})
	}
}

func TestLoadMalformed(t *testing.T) {
	path := writeFile(t, "requests.yaml", "requests: [::")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected decode error")
	}
}
