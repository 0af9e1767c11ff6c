package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri  string
		want Identifier
		ok   bool
	}{
		{
			uri:  "http://onto-ns.com/meta/1.2/Person",
			want: Identifier{"http://onto-ns.com/meta", "1.2", "Person"},
			ok:   true,
		},
		{
			uri:  "http://onto-ns.com/meta/chemistry/0.1/Molecule",
			want: Identifier{"http://onto-ns.com/meta/chemistry", "0.1", "Molecule"},
			ok:   true,
		},
		{
			uri:  "https://example.org/meta/1/Thing",
			want: Identifier{"https://example.org/meta", "1", "Thing"},
			ok:   true,
		},
		{uri: "http://onto-ns.com/meta/Person", ok: false},
		{uri: "http://onto-ns.com/meta/v1.2/Person", ok: false},
		{uri: "onto-ns.com/meta/1.2/Person", ok: false},
		{uri: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			id, err := ParseURI(tt.uri)
			if !tt.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
			assert.Equal(t, tt.uri, id.URI())
		})
	}
}

func TestRules_Identify(t *testing.T) {
	rules := Rules{
		BaseNamespace:   "http://onto-ns.com/meta",
		ExtraNamespaces: []string{"chemistry", "https://other.org/meta"},
	}

	t.Run("base namespace", func(t *testing.T) {
		id, err := rules.Identify(&Entity{
			Namespace: "http://onto-ns.com/meta", Version: "1.2", Name: "Person",
		})
		require.NoError(t, err)
		assert.Equal(t, "http://onto-ns.com/meta/1.2/Person", id.URI())
	})

	t.Run("specific namespace", func(t *testing.T) {
		_, err := rules.Identify(&Entity{
			Namespace: "http://onto-ns.com/meta/chemistry", Version: "1", Name: "Molecule",
		})
		require.NoError(t, err)
	})

	t.Run("unlisted specific namespace under base", func(t *testing.T) {
		_, err := rules.Identify(&Entity{
			Namespace: "http://onto-ns.com/meta/physics", Version: "1", Name: "Atom",
		})
		require.NoError(t, err)
	})

	t.Run("nested specific namespace", func(t *testing.T) {
		_, err := rules.Identify(&Entity{
			Namespace: "http://onto-ns.com/meta/a/b", Version: "1", Name: "Thing",
		})
		var nsErr *UnsupportedNamespaceError
		require.ErrorAs(t, err, &nsErr)
	})

	t.Run("full extra namespace", func(t *testing.T) {
		_, err := rules.Identify(&Entity{
			Namespace: "https://other.org/meta", Version: "1", Name: "Thing",
		})
		require.NoError(t, err)
	})

	t.Run("trailing slash is normalized", func(t *testing.T) {
		id, err := rules.Identify(&Entity{
			Namespace: "http://onto-ns.com/meta/", Version: "1", Name: "Person",
		})
		require.NoError(t, err)
		assert.Equal(t, "http://onto-ns.com/meta", id.Namespace)
	})

	t.Run("unsupported namespace", func(t *testing.T) {
		_, err := rules.Identify(&Entity{
			Namespace: "http://elsewhere.com/meta", Version: "1", Name: "Person",
		})
		var nsErr *UnsupportedNamespaceError
		require.ErrorAs(t, err, &nsErr)
		assert.Equal(t, "http://elsewhere.com/meta", nsErr.Namespace)
	})

	t.Run("invalid version", func(t *testing.T) {
		for _, version := range []string{"", "v1", "1.2.3.4", "1.a"} {
			_, err := rules.Identify(&Entity{
				Namespace: "http://onto-ns.com/meta", Version: version, Name: "Person",
			})
			var vErr *InvalidVersionError
			require.ErrorAs(t, err, &vErr, "version %q", version)
		}
	})

	t.Run("invalid name", func(t *testing.T) {
		for _, name := range []string{"", "1Person", "Per son", "pers/on"} {
			_, err := rules.Identify(&Entity{
				Namespace: "http://onto-ns.com/meta", Version: "1", Name: name,
			})
			var nErr *InvalidNameError
			require.ErrorAs(t, err, &nErr, "name %q", name)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		e := &Entity{Namespace: "http://onto-ns.com/meta", Version: "1.2", Name: "Person"}
		a, err := rules.Identify(e)
		require.NoError(t, err)
		b, err := rules.Identify(e)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}

func TestSupportedNamespaces(t *testing.T) {
	rules := Rules{
		BaseNamespace:   "http://onto-ns.com/meta/",
		ExtraNamespaces: []string{"chemistry/", "https://other.org/meta/"},
	}
	assert.Equal(t, []string{
		"http://onto-ns.com/meta",
		"http://onto-ns.com/meta/chemistry",
		"https://other.org/meta",
	}, rules.SupportedNamespaces())
}

func TestNextVersion(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"1", "1.1"},
		{"1.2", "1.2.1"},
		{"1.2.3", "1.2.4"},
		{"0", "0.1"},
		{"10.0.9", "10.0.10"},
	}
	for _, tt := range tests {
		got, err := NextVersion(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := NextVersion("v1")
	var vErr *InvalidVersionError
	require.True(t, errors.As(err, &vErr))
}
