// internal/adapters/in/http/storefront/handler/admin_product_handler.go
package storefrontHandler

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	usecase "storefront/internal/application/usecase"
)

const maxImageBytes = 10 << 20

// AdminProductHandler serves product management (admin only).
//
//	GET    /admin/products
//	POST   /admin/products
//	GET    /admin/products/{id}
//	PUT    /admin/products/{id}
//	DELETE /admin/products/{id}
//	POST   /admin/products/images   multipart "file" -> {url}
type AdminProductHandler struct {
	uc *usecase.AdminProductUsecase
}

func NewAdminProductHandler(uc *usecase.AdminProductUsecase) http.Handler {
	return &AdminProductHandler{uc: uc}
}

func (h *AdminProductHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.uc == nil {
		writeErr(w, http.StatusInternalServerError, "admin product handler is not configured")
		return
	}

	seg := splitPath(r.URL.Path, "/admin/products")
	switch {
	case len(seg) == 0 && r.Method == http.MethodGet:
		ps, err := h.uc.List(r.Context())
		if err != nil {
			writeUsecaseErr(w, "admin_product_handler", err)
			return
		}
		writeJSON(w, http.StatusOK, ps)

	case len(seg) == 0 && r.Method == http.MethodPost:
		var in usecase.ProductInput
		if err := readJSON(w, r, &in); err != nil {
			badRequest(w, err.Error())
			return
		}
		p, err := h.uc.Create(r.Context(), in)
		if err != nil {
			writeUsecaseErr(w, "admin_product_handler", err)
			return
		}
		writeJSON(w, http.StatusCreated, p)

	case len(seg) == 1 && seg[0] == "images" && r.Method == http.MethodPost:
		h.uploadImage(w, r)

	case len(seg) == 1 && r.Method == http.MethodGet:
		p, err := h.uc.Get(r.Context(), seg[0])
		if err != nil {
			writeUsecaseErr(w, "admin_product_handler", err)
			return
		}
		writeJSON(w, http.StatusOK, p)

	case len(seg) == 1 && r.Method == http.MethodPut:
		var in usecase.ProductInput
		if err := readJSON(w, r, &in); err != nil {
			badRequest(w, err.Error())
			return
		}
		p, err := h.uc.Update(r.Context(), seg[0], in)
		if err != nil {
			writeUsecaseErr(w, "admin_product_handler", err)
			return
		}
		writeJSON(w, http.StatusOK, p)

	case len(seg) == 1 && r.Method == http.MethodDelete:
		if err := h.uc.Delete(r.Context(), seg[0]); err != nil {
			writeUsecaseErr(w, "admin_product_handler", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case len(seg) <= 1:
		methodNotAllowed(w)

	default:
		notFound(w)
	}
}

func (h *AdminProductHandler) uploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+(1<<20))
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		badRequest(w, "invalid multipart form")
		return
	}

	f, fh, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "file is required")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		badRequest(w, "could not read file")
		return
	}
	if len(data) > maxImageBytes {
		badRequest(w, "file is too large")
		return
	}

	contentType := strings.TrimSpace(fh.Header.Get("Content-Type"))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		badRequest(w, "file must be an image")
		return
	}

	url, err := h.uc.UploadImage(r.Context(), filepath.Base(fh.Filename), contentType, data)
	if err != nil {
		writeUsecaseErr(w, "admin_product_handler", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}
