package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/remedy/pkg/config"
)

func TestCompileBuiltinPatterns(t *testing.T) {
	svc := NewService(&config.MaskingConfig{Enabled: true})

	// All built-in patterns should compile successfully
	assert.Equal(t, len(builtinPatterns()), len(svc.patterns),
		"All built-in patterns should compile")

	for name, cp := range svc.patterns {
		assert.NotNil(t, cp.Regex, "Pattern %s should have compiled regex", name)
		assert.NotEmpty(t, cp.Replacement, "Pattern %s should have replacement", name)
		assert.Equal(t, name, cp.Name)
	}
}

func TestResolvePatternGroups(t *testing.T) {
	svc := NewService(&config.MaskingConfig{Enabled: true})

	tests := []struct {
		name        string
		groups      []string
		wantRegex   int
		wantMaskers int
	}{
		{
			name:      "basic group",
			groups:    []string{"basic"},
			wantRegex: 2, // api_key, password
		},
		{
			name:      "secrets group",
			groups:    []string{"secrets"},
			wantRegex: 5, // api_key, password, token, private_key, secret_key
		},
		{
			name:        "security group",
			groups:      []string{"security"},
			wantRegex:   7,
			wantMaskers: 1, // kubernetes_secret
		},
		{
			name:        "kubernetes group",
			groups:      []string{"kubernetes"},
			wantRegex:   3, // api_key, password, certificate_authority_data
			wantMaskers: 1,
		},
		{
			name:      "cloud group",
			groups:    []string{"cloud"},
			wantRegex: 4,
		},
		{
			name:        "all group",
			groups:      []string{"all"},
			wantRegex:   15,
			wantMaskers: 1,
		},
		{
			name:      "overlapping groups are deduplicated",
			groups:    []string{"basic", "secrets"},
			wantRegex: 5,
		},
		{
			name:        "security plus cloud",
			groups:      []string{"security", "cloud"},
			wantRegex:   9, // security's 7 plus aws_access_key, aws_secret_key
			wantMaskers: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved := svc.resolvePatternGroups(tt.groups)

			assert.Len(t, resolved.regexPatterns, tt.wantRegex)
			assert.Len(t, resolved.codeMaskerNames, tt.wantMaskers)

			if tt.wantMaskers > 0 {
				assert.Contains(t, resolved.codeMaskerNames, "kubernetes_secret")
			}
		})
	}
}

func TestResolvePatternGroups_UnknownGroup(t *testing.T) {
	svc := NewService(&config.MaskingConfig{Enabled: true})

	resolved := svc.resolvePatternGroups([]string{"nonexistent_group"})

	assert.Empty(t, resolved.regexPatterns)
	assert.Empty(t, resolved.codeMaskerNames)
}

func TestResolvePatternGroups_Deduplication(t *testing.T) {
	svc := NewService(&config.MaskingConfig{Enabled: true})

	// api_key appears in basic, secrets, security, kubernetes, cloud and all
	resolved := svc.resolvePatternGroups([]string{"basic", "kubernetes", "cloud"})

	apiKeyCount := 0
	for _, p := range resolved.regexPatterns {
		if p.Name == "api_key" {
			apiKeyCount++
		}
	}
	assert.Equal(t, 1, apiKeyCount, "api_key should appear only once")

	maskerCount := 0
	for _, name := range resolved.codeMaskerNames {
		if name == "kubernetes_secret" {
			maskerCount++
		}
	}
	assert.Equal(t, 1, maskerCount, "kubernetes_secret should appear only once")
}

func TestPatternGroups_ReferenceKnownNames(t *testing.T) {
	svc := NewService(&config.MaskingConfig{Enabled: true})
	patterns := builtinPatterns()

	for group, names := range builtinPatternGroups() {
		for _, name := range names {
			_, isPattern := patterns[name]
			_, isMasker := svc.codeMaskers[name]
			require.True(t, isPattern || isMasker,
				"group %q references unknown name %q", group, name)
		}
	}
}
