package bbs

import (
	"errors"
	"strings"
	"testing"
)

func TestEscapeHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain text", "こんにちは world", "こんにちは world"},
		{"ampersand", "a&b", "a&amp;b"},
		{"angle brackets", "<b>bold</b>", "&lt;b&gt;bold&lt;&#x2F;b&gt;"},
		{"double quote", `say "hi"`, "say &quot;hi&quot;"},
		{"single quote", "it's", "it&#x27;s"},
		{"slash", "a/b/c", "a&#x2F;b&#x2F;c"},
		{
			"script tag",
			`<script>alert("x&y")</script>`,
			"&lt;script&gt;alert(&quot;x&amp;y&quot;)&lt;&#x2F;script&gt;",
		},
		{"newlines pass through", "Hello\nWorld", "Hello\nWorld"},
		{"re-escaping compounds", "&amp;", "&amp;amp;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeHTML(tt.in); got != tt.want {
				t.Errorf("EscapeHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEscapeHTML_NoRawSpecialsRemain(t *testing.T) {
	inputs := []string{
		"&<>\"'/",
		"<<<<>>>>",
		"plain",
		`<a href="/x" onclick='steal()'>&</a>`,
	}
	for _, in := range inputs {
		out := EscapeHTML(in)
		if strings.ContainsAny(out, `<>"'/`) {
			t.Errorf("EscapeHTML(%q) = %q still contains a raw special character", in, out)
		}
	}
}

func TestValidateField(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		max     int
		wantErr string
	}{
		{"ok", "Taro", 20, ""},
		{"ok at limit", strings.Repeat("あ", 20), 20, ""},
		{"ok with surrounding spaces", "  Taro  ", 20, ""},
		{"empty", "", 20, "お名前を入力してください"},
		{"whitespace only", "   \n\t ", 20, "お名前を入力してください"},
		{"too long", strings.Repeat("あ", 21), 20, "お名前は20文字以内で入力してください"},
		{"trim happens before counting", " " + strings.Repeat("a", 20) + " ", 20, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateField(tt.value, tt.max, labelName)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidateField failed: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateField succeeded, want %q", tt.wantErr)
			}
			if err.Error() != tt.wantErr {
				t.Errorf("got %q, want %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidatePost(t *testing.T) {
	valid := PostInput{Name: "Taro", Content: "Hello", DeleteKey: "pass123"}
	if err := ValidatePost(valid); err != nil {
		t.Fatalf("ValidatePost failed on valid input: %v", err)
	}

	tests := []struct {
		name string
		in   PostInput
		want []string
	}{
		{
			"missing name",
			PostInput{Content: "Hello", DeleteKey: "k"},
			[]string{"お名前を入力してください"},
		},
		{
			"content too long",
			PostInput{Name: "Taro", Content: strings.Repeat("x", 1001), DeleteKey: "k"},
			[]string{"メッセージは1000文字以内で入力してください"},
		},
		{
			"missing delete key",
			PostInput{Name: "Taro", Content: "Hello"},
			[]string{"削除キーを入力してください"},
		},
		{
			"all invalid, field order preserved",
			PostInput{Name: strings.Repeat("n", 21), Content: "  ", DeleteKey: strings.Repeat("k", 21)},
			[]string{
				"お名前は20文字以内で入力してください",
				"メッセージを入力してください",
				"削除キーは20文字以内で入力してください",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePost(tt.in)
			if err == nil {
				t.Fatal("ValidatePost succeeded, want validation error")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("got %T, want *ValidationError", err)
			}
			if len(verr.Errors) != len(tt.want) {
				t.Fatalf("got %d errors %v, want %d", len(verr.Errors), verr.Errors, len(tt.want))
			}
			for i := range tt.want {
				if verr.Errors[i] != tt.want[i] {
					t.Errorf("error[%d] = %q, want %q", i, verr.Errors[i], tt.want[i])
				}
			}
		})
	}
}
