// Copyright 2026 Quellwerk Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package tenant

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default tunables applied when a tenant file leaves them unset.
const (
	DefaultEscalationThreshold = 0.7
	DefaultRetrievalCutoff     = 0.3
	DefaultSessionTTL          = 30 * time.Minute
	DefaultCacheTTL            = 15 * time.Minute
)

// Tenant is one brand's isolated configuration and knowledge scope.
// Immutable after load; identified uniquely by ID.
type Tenant struct {
	ID                  string
	DisplayName         string
	KnowledgeBaseRef    string
	EscalationThreshold float64
	EscalationKeywords  []string
	SupportContact      string
	BrandVoice          string
	Language            string
	RetrievalCutoff     float64
	SessionTTL          time.Duration
	CacheTTL            time.Duration
}

// tenantFile is the on-disk YAML shape. TTLs are Go duration strings
// ("30m", "1h") parsed at load time.
type tenantFile struct {
	ID                  string   `yaml:"id"`
	DisplayName         string   `yaml:"display_name"`
	KnowledgeBaseRef    string   `yaml:"knowledge_base_ref"`
	EscalationThreshold float64  `yaml:"escalation_threshold"`
	EscalationKeywords  []string `yaml:"escalation_keywords"`
	SupportContact      string   `yaml:"support_contact"`
	BrandVoice          string   `yaml:"brand_voice"`
	Language            string   `yaml:"language"`
	RetrievalCutoff     float64  `yaml:"retrieval_cutoff"`
	SessionTTL          string   `yaml:"session_ttl"`
	CacheTTL            string   `yaml:"cache_ttl"`
}

// HasKeyword reports whether the message contains any escalation keyword,
// matched case-insensitively as a substring.
func (t *Tenant) HasKeyword(message string) (string, bool) {
	lower := strings.ToLower(message)
	for _, keyword := range t.EscalationKeywords {
		if keyword == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return keyword, true
		}
	}
	return "", false
}

// Registry holds all tenant configurations for the process lifetime.
// Loaded once at startup, read-only thereafter; safe for concurrent use
// without locking.
type Registry struct {
	tenants map[string]*Tenant
	logger  *slog.Logger
}

// NewRegistry builds a registry from pre-constructed tenants.
// Used by tests and embedders that manage configuration themselves.
func NewRegistry(tenants ...*Tenant) (*Registry, error) {
	registry := &Registry{
		tenants: make(map[string]*Tenant, len(tenants)),
		logger:  slog.Default().With("component", "tenant-registry"),
	}
	for _, t := range tenants {
		if err := validateTenant(t); err != nil {
			return nil, err
		}
		if _, exists := registry.tenants[t.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTenant, t.ID)
		}
		applyDefaults(t)
		registry.tenants[t.ID] = t
	}
	return registry, nil
}

// LoadRegistry loads every *.yaml file in dir as one tenant configuration,
// the way the brand configuration directory is laid out on disk. Unknown or
// malformed fields are rejected at load time, not at use time.
func LoadRegistry(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading tenant directory %s: %w", dir, err)
	}

	var tenants []*Tenant
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		t, err := loadTenantFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}

	if len(tenants) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTenants, dir)
	}

	registry, err := NewRegistry(tenants...)
	if err != nil {
		return nil, err
	}
	registry.logger.Info("tenant registry loaded", "dir", dir, "tenants", len(tenants))
	return registry, nil
}

// Get returns the tenant for the given id.
// Returns ErrUnknownTenant when absent.
func (r *Registry) Get(id string) (*Tenant, error) {
	t, ok := r.tenants[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTenant, id)
	}
	return t, nil
}

// IDs returns all registered tenant ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.tenants))
	for id := range r.tenants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func loadTenantFile(path string) (*Tenant, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	// KnownFields makes malformed configs fail here instead of silently
	// misconfiguring a brand.
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)

	var tf tenantFile
	if err := decoder.Decode(&tf); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTenantConfig, path, err)
	}

	t := &Tenant{
		ID:                  tf.ID,
		DisplayName:         tf.DisplayName,
		KnowledgeBaseRef:    tf.KnowledgeBaseRef,
		EscalationThreshold: tf.EscalationThreshold,
		EscalationKeywords:  tf.EscalationKeywords,
		SupportContact:      tf.SupportContact,
		BrandVoice:          tf.BrandVoice,
		Language:            tf.Language,
		RetrievalCutoff:     tf.RetrievalCutoff,
	}

	if tf.SessionTTL != "" {
		ttl, err := time.ParseDuration(tf.SessionTTL)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: session_ttl: %v", ErrInvalidTenantConfig, path, err)
		}
		t.SessionTTL = ttl
	}
	if tf.CacheTTL != "" {
		ttl, err := time.ParseDuration(tf.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: cache_ttl: %v", ErrInvalidTenantConfig, path, err)
		}
		t.CacheTTL = ttl
	}

	return t, nil
}

func validateTenant(t *Tenant) error {
	if t == nil {
		return fmt.Errorf("%w: tenant is nil", ErrInvalidTenantConfig)
	}
	if t.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidTenantConfig)
	}
	// Tenant ids become storage key components, separated by ':'.
	if strings.Contains(t.ID, ":") {
		return fmt.Errorf("%w: %s: id must not contain ':'", ErrInvalidTenantConfig, t.ID)
	}
	if t.EscalationThreshold < 0 || t.EscalationThreshold > 1 {
		return fmt.Errorf("%w: %s: escalation_threshold must be in [0,1]", ErrInvalidTenantConfig, t.ID)
	}
	if t.RetrievalCutoff < 0 || t.RetrievalCutoff > 1 {
		return fmt.Errorf("%w: %s: retrieval_cutoff must be in [0,1]", ErrInvalidTenantConfig, t.ID)
	}
	if t.SessionTTL < 0 || t.CacheTTL < 0 {
		return fmt.Errorf("%w: %s: TTLs must not be negative", ErrInvalidTenantConfig, t.ID)
	}
	return nil
}

func applyDefaults(t *Tenant) {
	if t.DisplayName == "" {
		t.DisplayName = t.ID
	}
	if t.EscalationThreshold == 0 {
		t.EscalationThreshold = DefaultEscalationThreshold
	}
	if t.RetrievalCutoff == 0 {
		t.RetrievalCutoff = DefaultRetrievalCutoff
	}
	if t.SessionTTL == 0 {
		t.SessionTTL = DefaultSessionTTL
	}
	if t.CacheTTL == 0 {
		t.CacheTTL = DefaultCacheTTL
	}
	if t.Language == "" {
		t.Language = "de"
	}
}
