package identity

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderResolver(t *testing.T) {
	id := uuid.New()

	t.Run("resolves owner", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(HeaderUserID, id.String())
		req.Header.Set(HeaderUserRole, "Owner")

		p, err := NewHeaderResolver().Resolve(req)
		require.NoError(t, err)
		assert.Equal(t, Principal{ID: id, Role: RoleOwner}, p)
		assert.False(t, p.IsOperator())
	})

	cases := map[string][2]string{
		"missing id":   {"", "owner"},
		"malformed id": {"bob", "owner"},
		"nil id":       {uuid.Nil.String(), "owner"},
		"unknown role": {id.String(), "admin"},
		"missing role": {id.String(), ""},
	}
	for name, hdr := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set(HeaderUserID, hdr[0])
			req.Header.Set(HeaderUserRole, hdr[1])

			_, err := NewHeaderResolver().Resolve(req)
			assert.ErrorIs(t, err, ErrUnauthenticated)
		})
	}
}

func TestPrincipalContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	p := Principal{ID: uuid.New(), Role: RoleOperator}
	got, ok := FromContext(WithPrincipal(context.Background(), p))
	require.True(t, ok)
	assert.Equal(t, p, got)
}

func TestAuthorizer_DefaultPolicy(t *testing.T) {
	a, err := NewAuthorizer()
	require.NoError(t, err)

	owner := Principal{ID: uuid.New(), Role: RoleOwner}
	operator := Principal{ID: uuid.New(), Role: RoleOperator}

	tests := []struct {
		p        Principal
		resource string
		action   string
		want     bool
	}{
		{owner, ResourceRequest, ActionCreate, true},
		{owner, ResourceRequest, ActionApprove, true},
		{owner, ResourceRequest, ActionCancel, true},
		{owner, ResourceRequest, ActionReview, false},
		{owner, ResourceRequest, ActionListAll, false},
		{operator, ResourceRequest, ActionReview, true},
		{operator, ResourceRequest, ActionListAll, true},
		{operator, ResourceRequest, ActionCreate, false},
		{operator, ResourceRequest, ActionApprove, false},
		{operator, ResourceAvailability, ActionRead, true},
		{owner, ResourceAvailability, ActionRead, true},
		{Principal{Role: "guest"}, ResourceAvailability, ActionRead, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.p.Role)+"/"+tt.resource+"/"+tt.action, func(t *testing.T) {
			ok, err := a.Allowed(tt.p, tt.resource, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestAuthorizer_CustomPolicy(t *testing.T) {
	a, err := NewAuthorizerFromPolicy("p, operator, maintenance_request, create")
	require.NoError(t, err)

	ok, err := a.Allowed(Principal{Role: RoleOperator}, ResourceRequest, ActionCreate)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Allowed(Principal{Role: RoleOwner}, ResourceRequest, ActionCreate)
	require.NoError(t, err)
	assert.False(t, ok)
}
