package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

func esc(s string) string { return templ.EscapeString(s) }

func writeAll(w io.Writer, parts ...string) error {
	for _, part := range parts {
		if _, err := io.WriteString(w, part); err != nil {
			return err
		}
	}
	return nil
}

const pageStyle = `body{font-family:system-ui,sans-serif;background:#f3f4f6;display:flex;` +
	`justify-content:center;padding-top:8vh}` +
	`.card{background:#fff;border-radius:8px;box-shadow:0 1px 4px rgba(0,0,0,.1);` +
	`padding:2rem;width:22rem}` +
	`h1{font-size:1.25rem;margin:0 0 1rem}` +
	`label{display:block;margin:.75rem 0 .25rem;font-size:.9rem}` +
	`input{width:100%;padding:.5rem;border:1px solid #d1d5db;border-radius:4px;box-sizing:border-box}` +
	`button{margin-top:1.25rem;width:100%;padding:.6rem;border:0;border-radius:4px;` +
	`background:#2563eb;color:#fff;font-size:1rem;cursor:pointer}` +
	`.error{background:#fef2f2;border:1px solid #fecaca;color:#b91c1c;` +
	`border-radius:4px;padding:.5rem .75rem;margin-bottom:.5rem;font-size:.9rem}` +
	`.hint{color:#6b7280;font-size:.85rem;margin-bottom:1rem}`

func pageHead(w io.Writer, title string) error {
	return writeAll(w,
		`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`,
		`<meta name="viewport" content="width=device-width, initial-scale=1">`,
		`<title>`, esc(title), `</title>`,
		`<style>`, pageStyle, `</style>`,
		`</head><body><div class="card">`,
	)
}

func pageFoot(w io.Writer) error {
	return writeAll(w, `</div></body></html>`)
}

// LoginPage renders the credential form shown by the authorize endpoint.
func LoginPage(props LoginPageProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := pageHead(w, "Sign in"); err != nil {
			return err
		}
		if err := writeAll(w, `<h1>Sign in</h1>`); err != nil {
			return err
		}
		if props.ClientName != "" {
			if err := writeAll(w,
				`<p class="hint">Continue to `, esc(props.ClientName), `</p>`,
			); err != nil {
				return err
			}
		}
		if props.Error != "" {
			if err := writeAll(w, `<div class="error">`, esc(props.Error), `</div>`); err != nil {
				return err
			}
		}
		if err := writeAll(w,
			`<form method="post" action="/auth/login">`,
			`<input type="hidden" name="csrf_token" value="`, esc(props.CSRFToken), `">`,
			`<input type="hidden" name="client_id" value="`, esc(props.ClientID), `">`,
			`<input type="hidden" name="redirect_uri" value="`, esc(props.RedirectURI), `">`,
			`<input type="hidden" name="scope" value="`, esc(props.Scope), `">`,
			`<input type="hidden" name="state" value="`, esc(props.State), `">`,
			`<label for="email">Email</label>`,
			`<input id="email" name="email" type="email" autocomplete="username" required autofocus>`,
			`<label for="password">Password</label>`,
			`<input id="password" name="password" type="password" autocomplete="current-password" required>`,
			`<button type="submit">Sign in</button>`,
			`</form>`,
		); err != nil {
			return err
		}
		return pageFoot(w)
	})
}

// ErrorPage renders a terminal error the flow cannot recover from, such as an
// invalid client or redirect URI where redirecting back would be unsafe.
func ErrorPage(props ErrorPageProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := pageHead(w, "Error"); err != nil {
			return err
		}
		if err := writeAll(w, `<h1>`, esc(props.Error), `</h1>`); err != nil {
			return err
		}
		if props.Message != "" {
			if err := writeAll(w, `<p class="hint">`, esc(props.Message), `</p>`); err != nil {
				return err
			}
		}
		return pageFoot(w)
	})
}
