package validation

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type registerReq struct {
	Email    string   `json:"email" validate:"required,email"`
	Username string   `json:"username" validate:"required,username"`
	Password string   `json:"password" validate:"required,pwd"`
	Tags     []string `json:"tags" validate:"max=2,dive,tagitem"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	Register(v)
	return v
}

func TestToDetails_FieldMessages(t *testing.T) {
	err := newValidator().Struct(registerReq{Email: "nope", Username: "a!", Password: "short", Tags: []string{"ok"}})

	d := ToDetails(err)
	assert.Equal(t, "must be a valid email", d["email"])
	assert.Equal(t, "must be 3-32 characters of letters, digits, '_' or '-'", d["username"])
	assert.Equal(t, "must be 8-72 characters long", d["password"])
	assert.NotContains(t, d, "tags")
}

func TestToDetails_SliceItems(t *testing.T) {
	err := newValidator().Struct(registerReq{Email: "a@b.co", Username: "ada", Password: "longenough", Tags: []string{""}})

	d := ToDetails(err)
	assert.Equal(t, "must be 1-32 characters long", d["tags[0]"])
}

func TestToDetails_InvalidJSON(t *testing.T) {
	var x map[string]any
	err := json.Unmarshal([]byte("{"), &x)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))
}

func TestIsUsername(t *testing.T) {
	assert.True(t, IsUsername("ada_lovelace-1"))
	assert.False(t, IsUsername("ab"))
	assert.False(t, IsUsername("has space"))
}
