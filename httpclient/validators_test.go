package httpclient

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createUser struct {
	Email string `json:"email" validate:"required,email"`
	Age   int    `json:"age" validate:"gte=0,lte=150"`
}

type userView struct {
	ID        string    `json:"id"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"created_at"`
}

func TestValidateBody(t *testing.T) {
	check := ValidateBody(validator.New())
	ctx := context.Background()

	assert.NoError(t, check(ctx, &RequestOptions{Body: createUser{Email: "a@b.test", Age: 3}}))
	assert.NoError(t, check(ctx, &RequestOptions{Body: map[string]any{"email": "nope"}}), "non-struct bodies pass")
	assert.NoError(t, check(ctx, &RequestOptions{}))

	err := check(ctx, &RequestOptions{Body: &createUser{Email: "nope"}})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "Email", verrs[0].Field())
}

func TestValidateMap(t *testing.T) {
	check := ValidateMap(validator.New(), map[string]any{"id": "required", "age": "gte=18"})
	ctx := context.Background()

	assert.NoError(t, check(ctx, map[string]any{"id": "u1", "age": 20}))

	err := check(ctx, map[string]any{"age": 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "age:")
	assert.Contains(t, err.Error(), "id:")

	assert.Error(t, check(ctx, []any{1}))
}

func TestTransformInto(t *testing.T) {
	out, err := TransformInto[userView]()(context.Background(), map[string]any{
		"id":         "u1",
		"age":        "41",
		"created_at": "2024-05-06T07:08:09Z",
		"extra":      true,
	})
	require.NoError(t, err)
	assert.Equal(t, userView{
		ID:        "u1",
		Age:       41,
		CreatedAt: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
	}, out)

	_, err = TransformInto[userView]()(context.Background(), map[string]any{"age": []int{1, 2}})
	assert.Error(t, err)
}
