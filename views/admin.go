package views

import (
	"context"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/pubcontent/content"
)

// AdminLogin is the password form.
func (s Site) AdminLogin(showError bool, csrfToken string) templ.Component {
	return s.page(PageMeta{Title: "Admin", NoIndex: true}, func(_ context.Context, h *htmlWriter) error {
		h.raw(`<section class="admin"><h1>Admin</h1>`)
		if showError {
			h.raw(`<p class="flash error">Wrong password.</p>`)
		}
		h.raw(`<form method="post" action="/admin/login/">`,
			`<input type="hidden" name="_csrf" value="`, h.attr(csrfToken), `">`,
			`<label>Password <input type="password" name="password" autofocus required></label> `,
			`<button type="submit">Log in</button></form></section>`)
		return h.err
	})
}

// AdminDashboard shows the current snapshot: every loaded post (drafts and
// scheduled posts included), rejected documents and validation issues.
func (s Site) AdminDashboard(report *content.Report, loadedAt time.Time, snapshotID, message, csrfToken string) templ.Component {
	return s.page(PageMeta{Title: "Admin", NoIndex: true}, func(_ context.Context, h *htmlWriter) error {
		h.raw(`<section class="admin"><h1>Content</h1>`)
		if message != "" {
			h.raw(`<p class="flash">`)
			h.text(message)
			h.raw(`</p>`)
		}
		h.raw(`<p class="meta">Snapshot <code>`)
		h.text(snapshotID)
		h.raw(`</code> loaded `)
		h.text(loadedAt.Format(time.RFC1123))
		h.raw(` from `, strconv.Itoa(report.Total), ` documents.</p>`)

		h.raw(`<form method="post" action="/admin/reload/"><input type="hidden" name="_csrf" value="`, h.attr(csrfToken), `">`,
			`<button type="submit">Reload from source</button></form>`)

		now := time.Now()
		h.raw(`<h2>Posts (`, strconv.Itoa(len(report.Posts)), `)</h2><table><thead><tr>`,
			`<th>Date</th><th>Title</th><th>Slug</th><th>Tags</th><th>State</th></tr></thead><tbody>`)
		for _, p := range content.ListByDate(report.Posts) {
			h.raw(`<tr><td>`, p.Date.Format("2006-01-02"), `</td><td><a href="`, h.attr(p.Link()), `">`)
			h.text(p.Title)
			h.raw(`</a></td><td>`)
			h.text(p.Slug)
			h.raw(`</td><td>`)
			for i, t := range p.Tags {
				if i > 0 {
					h.raw(`, `)
				}
				h.text(t)
			}
			h.raw(`</td><td>`, postState(p, now), `</td></tr>`)
		}
		h.raw(`</tbody></table>`)

		if len(report.Errors) > 0 {
			h.raw(`<h2>Rejected (`, strconv.Itoa(len(report.Errors)), `)</h2><ul>`)
			for _, e := range report.Errors {
				h.raw(`<li class="error">`)
				h.text(e.Error())
				h.raw(`</li>`)
			}
			h.raw(`</ul>`)
		}
		if len(report.Issues) > 0 {
			h.raw(`<h2>Issues (`, strconv.Itoa(len(report.Issues)), `)</h2><ul>`)
			for _, is := range report.Issues {
				h.raw(`<li class="warning">`)
				h.text(is.String())
				h.raw(`</li>`)
			}
			h.raw(`</ul>`)
		}

		h.raw(`<form method="post" action="/admin/logout/"><input type="hidden" name="_csrf" value="`, h.attr(csrfToken), `">`,
			`<button type="submit">Log out</button></form></section>`)
		return h.err
	})
}

func postState(p content.Post, now time.Time) string {
	switch {
	case p.Draft:
		return "draft"
	case p.Date.After(now):
		return "scheduled"
	default:
		return "published"
	}
}
