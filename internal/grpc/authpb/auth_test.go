package authpb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/magabrotheeeer/content-generator/internal/models"
)

func TestPrincipalStructRoundTrip(t *testing.T) {
	p := models.Principal{UserUID: "uid-1", Username: "alice", Role: models.RoleAdmin}

	s, err := PrincipalToStruct(p)
	require.NoError(t, err)

	got, err := PrincipalFromStruct(s)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestPrincipalFromStruct_MissingUID(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{"username": "alice"})
	require.NoError(t, err)

	_, err = PrincipalFromStruct(s)
	assert.Error(t, err)

	_, err = PrincipalFromStruct(nil)
	assert.Error(t, err)
}
