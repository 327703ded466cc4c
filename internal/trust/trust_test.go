package trust

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	merrors "github.com/PolarWolf314/mainsail/internal/errors"
	"github.com/PolarWolf314/mainsail/internal/metrics"
)

const testKey = "Pj4-Pj4-Pj4-Pj4-Pj4-Pj4-Pj4-Pj4-Pj4-Pj4-Pj4="

func profileTOML(active bool) string {
	a := "false"
	if active {
		a = "true"
	}
	return `[Name]
Value = "Ada Lovelace"

[Location]
Value = "London"

[Affiliation]
Value = "Analytical Engines Ltd"

[Public_key]
Active = ` + a + `
Last_verification_date = 2024-03-01
`
}

// answer is what a fake registry returns for the test key.
type answer struct {
	status int
	body   string
}

var (
	notFound403 = answer{status: http.StatusForbidden}
	notFound404 = answer{status: http.StatusNotFound}
	active      = answer{status: http.StatusOK, body: profileTOML(true)}
	inactive    = answer{status: http.StatusOK, body: profileTOML(false)}
	garbage     = answer{status: http.StatusOK, body: "this is = = not toml"}
	serverError = answer{status: http.StatusInternalServerError}
)

func fakeRegistry(t *testing.T, a answer, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		if strings.TrimPrefix(r.URL.Path, "/reg/") != testKey {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(a.status)
		_, _ = w.Write([]byte(a.body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestResolver(t *testing.T, answers ...answer) *Resolver {
	t.Helper()
	var regs []Registry
	for i, a := range answers {
		srv := fakeRegistry(t, a, nil)
		regs = append(regs, Registry{Name: []string{"aws", "digitalocean", "azure"}[i], BaseURL: srv.URL + "/reg/"})
	}
	return NewResolver(ResolverOptions{Registries: regs, Timeout: 2 * time.Second, RateLimit: 1000})
}

func TestLookupQuorum(t *testing.T) {
	tests := []struct {
		name    string
		answers []answer
		kind    Kind
	}{
		{"AllActive", []answer{active, active, active}, KindTrusted},
		{"NoProfileAnywhere", []answer{notFound403, notFound403, notFound404}, KindNoProfile},
		{"TwoMissingOneActive", []answer{notFound403, active, notFound404}, KindTrusted},
		{"TwoMissingOneInactive", []answer{notFound403, inactive, notFound404}, KindInconsistent},
		{"TwoInactive", []answer{inactive, inactive, active}, KindInactive},
		{"OneInactiveTwoActive", []answer{inactive, active, active}, KindTrusted},
		{"ThreeInactive", []answer{inactive, inactive, inactive}, KindInactive},
		{"OneMissingTwoInactive", []answer{notFound404, inactive, inactive}, KindInactive},
		{"GarbageCountsAsMissing", []answer{garbage, garbage, active}, KindTrusted},
		{"GarbageEverywhere", []answer{garbage, garbage, garbage}, KindNoProfile},
		{"ServerErrorCountsAsMissing", []answer{serverError, notFound403, notFound403}, KindNoProfile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(t, tt.answers...)
			v := r.Lookup(context.Background(), testKey)
			assert.Equal(t, tt.kind, v.Kind, "reason: %s", v.Reason)
			assert.Equal(t, tt.kind == KindTrusted, v.Trusted)
			if v.Trusted {
				require.NotNil(t, v.Profile)
				assert.Equal(t, "Ada Lovelace", v.Profile.Name)
				assert.True(t, v.Profile.Active)
			} else {
				assert.Nil(t, v.Profile)
				assert.NotEmpty(t, v.Reason)
			}
		})
	}
}

func TestLookupPicksFirstActiveInRegistryOrder(t *testing.T) {
	r := newTestResolver(t, notFound403, active, active)
	v := r.Lookup(context.Background(), testKey)
	require.True(t, v.Trusted)
	assert.Equal(t, "digitalocean", v.Profile.Registry)
}

func TestLookupConnectivity(t *testing.T) {
	up := fakeRegistry(t, active, nil)
	down := httptest.NewServer(http.NotFoundHandler())
	downURL := down.URL
	down.Close()

	m := metrics.New()
	r := NewResolver(ResolverOptions{
		Registries: []Registry{
			{Name: "aws", BaseURL: up.URL + "/reg/"},
			{Name: "digitalocean", BaseURL: downURL + "/reg/"},
			{Name: "azure", BaseURL: up.URL + "/reg/"},
		},
		Timeout:   time.Second,
		RateLimit: 1000,
		Metrics:   m,
	})

	v := r.Lookup(context.Background(), testKey)
	assert.False(t, v.Trusted)
	assert.Equal(t, KindConnectivity, v.Kind)
}

func TestLookupQueriesEveryRegistryOnce(t *testing.T) {
	var hits int32
	var regs []Registry
	for i := 0; i < 3; i++ {
		srv := fakeRegistry(t, notFound403, &hits)
		regs = append(regs, Registry{Name: "r", BaseURL: srv.URL + "/reg/"})
	}
	r := NewResolver(ResolverOptions{Registries: regs, RateLimit: 1000})

	r.Lookup(context.Background(), testKey)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestParseProfile(t *testing.T) {
	t.Run("DateAsTOMLDate", func(t *testing.T) {
		p, err := ParseProfile([]byte(profileTOML(true)))
		require.NoError(t, err)
		assert.Equal(t, "2024-03-01", p.LastVerified)
		assert.Equal(t, "Ada Lovelace\nLondon\nAnalytical Engines Ltd\nVerified on 2024-03-01", p.Summary())
	})

	t.Run("DateAsString", func(t *testing.T) {
		p, err := ParseProfile([]byte("[Public_key]\nActive = true\nLast_verification_date = \"March 2024\"\n"))
		require.NoError(t, err)
		assert.Equal(t, "March 2024", p.LastVerified)
	})

	t.Run("MissingActive", func(t *testing.T) {
		_, err := ParseProfile([]byte("[Name]\nValue = \"x\"\n"))
		require.ErrorIs(t, err, merrors.ErrRegistryParse)
	})

	t.Run("NotTOML", func(t *testing.T) {
		_, err := ParseProfile([]byte("<html>"))
		require.ErrorIs(t, err, merrors.ErrRegistryParse)
	})
}

func TestTrustList(t *testing.T) {
	list := NewTrustList(filepath.Join(t.TempDir(), "config", "trusted_keys.txt"))

	ok, err := list.Contains(testKey)
	require.NoError(t, err)
	assert.False(t, ok, "missing file is an empty list")

	require.NoError(t, list.Add(testKey))
	require.NoError(t, list.Add(testKey))

	ok, err = list.Contains(testKey)
	require.NoError(t, err)
	assert.True(t, ok)

	keys, err := list.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{testKey, testKey}, keys, "duplicates are kept")

	ok, err = list.Contains(testKey[:43] + "A")
	require.NoError(t, err)
	assert.False(t, ok)

	require.ErrorIs(t, list.Add("not-a-key"), merrors.ErrInvalidEncoding)
}
