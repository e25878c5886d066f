package dynamo

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/community-notify/internal/domain"
)

func TestBuildUpdateExpr_SingleField(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"device": "mobile"})
	require.NoError(t, err)
	assert.Equal(t, "SET #f0 = :v0", ue.Expr)
	assert.Equal(t, map[string]string{"#f0": "device"}, ue.Names)
	_, ok := ue.Values[":v0"]
	assert.True(t, ok)
}

func TestBuildUpdateExpr_MultipleFields_Deterministic(t *testing.T) {
	updates := map[string]interface{}{
		"user_agent": "Mozilla/5.0",
		"device":     "desktop",
		"updated_at": "2026-01-01T00:00:00Z",
	}
	// Call twice to verify determinism.
	ue1, err := buildUpdateExpr(updates)
	require.NoError(t, err)
	ue2, err := buildUpdateExpr(updates)
	require.NoError(t, err)

	assert.Equal(t, ue1.Expr, ue2.Expr)

	// Keys must be sorted: device < updated_at < user_agent
	assert.Equal(t, "device", ue1.Names["#f0"])
	assert.Equal(t, "updated_at", ue1.Names["#f1"])
	assert.Equal(t, "user_agent", ue1.Names["#f2"])
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1, #f2 = :v2", ue1.Expr)
}

func TestBuildUpdateExpr_ValuesMarshalledCorrectly(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"attempts": 3})
	require.NoError(t, err)
	av, ok := ue.Values[":v0"]
	require.True(t, ok)
	numVal, isNum := av.(*types.AttributeValueMemberN)
	require.True(t, isNum)
	assert.Equal(t, "3", numVal.Value)
}

// The re-registration path updates keys, device, user_agent and
// updated_at in one expression; the nested key struct marshals to a map
// attribute.
func TestBuildUpdateExpr_ReRegistrationSet(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{
		"keys":       domain.SubscriptionKeys{P256dh: "pk", Auth: "secret"},
		"device":     domain.DeviceMobile,
		"user_agent": "Mozilla/5.0",
		"updated_at": time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1, #f2 = :v2, #f3 = :v3", ue.Expr)
	assert.Equal(t, "keys", ue.Names["#f1"])

	keysVal, isMap := ue.Values[":v1"].(*types.AttributeValueMemberM)
	require.True(t, isMap)
	p256dh, isStr := keysVal.Value["p256dh"].(*types.AttributeValueMemberS)
	require.True(t, isStr)
	assert.Equal(t, "pk", p256dh.Value)
}

func TestBuildUpdateExpr_EmptyMap_ReturnsError(t *testing.T) {
	_, err := buildUpdateExpr(map[string]interface{}{})
	assert.ErrorContains(t, err, "no fields to update")
}
