package recipe

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/hitoshi/recipebox/internal/model"
)

// RawFields はJSONボディをフィールド名ごとに保持したもの。
// 未知のフィールドは無視する。
type RawFields map[string]json.RawMessage

// 必須テキストフィールド（JSONキー順）
var textFields = []string{"title", "ingredients", "instructions"}

// ParseCreate は作成リクエストのフィールドを検証してNewRecipeに変換する。
// title、ingredients、instructionsは存在し、空でない文字列でなければならない。
// website_url、image_urlは省略可能で、文字列またはnullを受け付ける。
func ParseCreate(raw RawFields) (model.NewRecipe, error) {
	var input model.NewRecipe

	values := make(map[string]string, len(textFields))
	for _, name := range textFields {
		v, present, err := stringField(raw, name)
		if err != nil || !present || v == nil || *v == "" {
			return model.NewRecipe{}, requiredError(name)
		}
		values[name] = *v
	}
	input.Title = values["title"]
	input.Ingredients = values["ingredients"]
	input.Instructions = values["instructions"]

	websiteURL, err := optionalURL(raw, "website_url")
	if err != nil {
		return model.NewRecipe{}, err
	}
	imageURL, err := optionalURL(raw, "image_url")
	if err != nil {
		return model.NewRecipe{}, err
	}
	input.WebsiteURL = websiteURL.Value
	input.ImageURL = imageURL.Value

	return input, nil
}

// ParsePatch は更新リクエストのフィールドを検証してRecipePatchに変換する。
// 各フィールドは省略可能だが、少なくとも1つは指定されていなければならない。
// 指定されたテキストフィールドは空でない文字列、URLフィールドは文字列またはnull（値のクリア）。
func ParsePatch(raw RawFields) (model.RecipePatch, error) {
	var patch model.RecipePatch

	targets := map[string]**string{
		"title":        &patch.Title,
		"ingredients":  &patch.Ingredients,
		"instructions": &patch.Instructions,
	}
	for _, name := range textFields {
		v, present, err := stringField(raw, name)
		if !present {
			continue
		}
		if err != nil || v == nil || *v == "" {
			return model.RecipePatch{}, model.NewValidationError(fieldLabel(name) + " must be a non-empty string")
		}
		*targets[name] = v
	}

	var err error
	if patch.WebsiteURL, err = optionalURL(raw, "website_url"); err != nil {
		return model.RecipePatch{}, err
	}
	if patch.ImageURL, err = optionalURL(raw, "image_url"); err != nil {
		return model.RecipePatch{}, err
	}

	if patch.IsEmpty() {
		return model.RecipePatch{}, model.NewValidationError("At least one field is required")
	}
	return patch, nil
}

// stringField はフィールドを文字列として取り出す。
// presentはキーの有無、nilの戻り値はJSONのnullを示す。文字列・null以外はエラー。
func stringField(raw RawFields, name string) (value *string, present bool, err error) {
	msg, ok := raw[name]
	if !ok {
		return nil, false, nil
	}
	if bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
		return nil, true, nil
	}
	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		return nil, true, err
	}
	return &s, true, nil
}

func optionalURL(raw RawFields, name string) (model.OptionalString, error) {
	v, present, err := stringField(raw, name)
	if err != nil {
		return model.OptionalString{}, model.NewValidationError(name + " must be a string or null")
	}
	return model.OptionalString{Set: present, Value: v}, nil
}

func requiredError(name string) error {
	return model.NewValidationError(fieldLabel(name) + " is required and must be a string")
}

func fieldLabel(name string) string {
	return strings.ToUpper(name[:1]) + name[1:]
}
