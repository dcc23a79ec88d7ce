package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name string `json:"name" validate:"required,max=5"`
	Age  int    `json:"age" validate:"min=0,max=50"`
}

func TestMessagesUsesOverrides(t *testing.T) {
	msgs := Messages(sample{Name: "", Age: 3}, map[string]string{
		"name.required": "Name is required.",
	})
	assert.Equal(t, []string{"Name is required."}, msgs)
}

func TestMessagesFallsBackToGenericText(t *testing.T) {
	msgs := Messages(sample{Name: "toolong", Age: 51}, nil)
	assert.ElementsMatch(t, []string{
		"name must be at most 5 characters long",
		"age must be at most 50",
	}, msgs)
}

func TestMessagesValid(t *testing.T) {
	assert.Empty(t, Messages(sample{Name: "Rex", Age: 50}, nil))
}

func TestToDetails(t *testing.T) {
	var se *json.SyntaxError
	err := json.Unmarshal([]byte("{"), &map[string]any{})
	assert.ErrorAs(t, err, &se)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))

	verr := Validator().Struct(sample{Name: "", Age: 1})
	assert.Equal(t, map[string]string{"name": "is required"}, ToDetails(verr))
	assert.Nil(t, ToDetails(nil))
}
