package feed

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/sipico/catalog-backend/internal/storage"
)

// DefaultSiteName prefixes share page titles when no site name is set.
const DefaultSiteName = "先越科技"

// untitledProduct stands in for an empty product title.
const untitledProduct = "产品"

var sharePage = template.Must(template.New("share").Parse(`<!DOCTYPE html>
<html lang="zh-CN">
<head>
    <meta charset="UTF-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1.0, viewport-fit=cover" />
    <title>{{.Title}}</title>
    <meta name="description" content="{{.Title}}" />
    <meta property="og:type" content="product" />
    <meta property="og:title" content="{{.Title}}" />
    <meta property="og:description" content="{{.Title}}" />
    <meta property="og:url" content="{{.URL}}" />
{{- if .Image}}
    <meta property="og:image" content="{{.Image}}" />
{{- end}}
    <meta name="twitter:card" content="summary_large_image" />
    <meta name="twitter:title" content="{{.Title}}" />
    <meta name="twitter:description" content="{{.Title}}" />
{{- if .Image}}
    <meta name="twitter:image" content="{{.Image}}" />
{{- end}}
    <meta http-equiv="refresh" content="0;url=/?product={{.ProductID}}" />
</head>
<body>
    <p>正在跳转到产品页面...</p>
</body>
</html>
`))

type sharePageData struct {
	Title     string
	Image     string
	URL       string
	ProductID string
}

// SetSiteName sets the title prefix of share pages.
func (h *Handler) SetSiteName(name string) {
	if name != "" {
		h.siteName = name
	}
}

// HandleSharePage serves link-preview tags for a product and sends browsers
// on to the product in the web app. Anything unresolvable redirects home.
// GET /api/product-og?id={id}
func (h *Handler) HandleSharePage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil || id <= 0 {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	p, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			h.logger.Error("failed to load product for share page", "id", id, "error", err)
		}
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	title := p.Title
	if title == "" {
		title = untitledProduct
	}
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "https"
	}
	productID := strconv.FormatInt(id, 10)
	data := sharePageData{
		Title:     h.siteName + " - " + title,
		URL:       scheme + "://" + r.Host + "/?product=" + productID,
		ProductID: productID,
	}
	if len(p.Images) > 0 {
		data.Image = p.Images[0]
	}

	var buf bytes.Buffer
	if err := sharePage.Execute(&buf, data); err != nil {
		h.logger.Error("failed to render share page", "id", id, "error", err)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes()) //nolint:errcheck
}
