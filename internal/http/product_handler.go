package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"
	"github.com/retisha256/ecommerce/internal/domain"
	"github.com/retisha256/ecommerce/internal/upload"
)

// Limits bounds request handling for every handler.
type Limits struct {
	Timeout        time.Duration
	MaxBodyBytes   int64
	MaxUploadBytes int64
}

type ProductHandler struct {
	svc     ProductService
	storage upload.Storage
	limits  Limits
	decoder *schema.Decoder
	log     *slog.Logger
}

func NewProductHandler(svc ProductService, storage upload.Storage, limits Limits, log *slog.Logger) *ProductHandler {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	dec.RegisterConverter(domain.Money{}, func(s string) reflect.Value {
		return reflect.ValueOf(domain.ParseMoney(s))
	})

	return &ProductHandler{
		svc:     svc,
		storage: storage,
		limits:  limits,
		decoder: dec,
		log:     log.With("component", "product_handler"),
	}
}

// productForm is the multipart form sent by the admin page.
type productForm struct {
	Name        string       `schema:"name"`
	Category    string       `schema:"category"`
	Description string       `schema:"description"`
	Price       domain.Money `schema:"price"`
	Stock       int          `schema:"stock"`
	Featured    bool         `schema:"featured"`
	Rating      float64      `schema:"rating"`
	Image       string       `schema:"image"`
	Tags        []string     `schema:"tags"`
}

func (f productForm) product() *domain.Product {
	return &domain.Product{
		Name:        f.Name,
		Category:    f.Category,
		Description: f.Description,
		Price:       f.Price,
		Stock:       f.Stock,
		Featured:    f.Featured,
		Rating:      f.Rating,
		Image:       f.Image,
		Tags:        f.Tags,
	}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.limits.Timeout)
	defer cancel()

	q := r.URL.Query()
	filter := domain.ProductFilter{
		Query:    q.Get("q"),
		Category: q.Get("category"),
	}
	if filter.Query == "" {
		filter.Query = q.Get("search")
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	if featured, err := strconv.ParseBool(q.Get("featured")); err == nil {
		filter.Featured = &featured
	}

	page, err := h.svc.List(ctx, filter)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	items := page.Items
	if items == nil {
		items = []*domain.Product{}
	}
	respondData(w, http.StatusOK, items, map[string]interface{}{
		"count": len(items),
		"total": page.Total,
		"page":  page.Page,
		"pages": page.Pages(),
	})
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.limits.Timeout)
	defer cancel()

	p, err := h.svc.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	respondData(w, http.StatusOK, p, nil)
}

// Create accepts either a JSON product or a multipart form with an "image" file.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.limits.Timeout)
	defer cancel()

	var (
		p        *domain.Product
		imageURL string
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var ok bool
		p, imageURL, ok = h.readMultipart(ctx, w, r)
		if !ok {
			return
		}
	} else {
		p = &domain.Product{}
		if err := decodeJSON(w, r, h.limits.MaxBodyBytes, p); err != nil {
			writeDecodeError(w, err)
			return
		}
	}

	if err := h.svc.Create(ctx, p); err != nil {
		if imageURL != "" {
			h.discardImage(imageURL)
		}
		handleServiceError(w, r, h.log, err)
		return
	}
	respondData(w, http.StatusCreated, p, map[string]interface{}{"message": "Product created"})
}

func (h *ProductHandler) readMultipart(ctx context.Context, w http.ResponseWriter, r *http.Request) (*domain.Product, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.limits.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(h.limits.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusBadRequest, upload.ErrFileTooLarge.Error())
			return nil, "", false
		}
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return nil, "", false
	}

	var form productForm
	if err := h.decoder.Decode(&form, r.MultipartForm.Value); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form: "+err.Error())
		return nil, "", false
	}

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return form.product(), "", true
	case err != nil:
		respondError(w, http.StatusBadRequest, "invalid image upload")
		return nil, "", false
	}
	defer file.Close()

	ext, err := upload.Validate(file, header.Size, h.limits.MaxUploadBytes)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return nil, "", false
	}
	url, err := h.storage.Save(ctx, ext, file)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return nil, "", false
	}

	form.Image = url
	return form.product(), url, true
}

func (h *ProductHandler) discardImage(url string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.storage.Delete(ctx, url); err != nil {
		h.log.Warn("failed to remove orphaned image", "error", err, "url", url)
	}
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.limits.Timeout)
	defer cancel()

	var u domain.ProductUpdate
	if err := decodeJSON(w, r, h.limits.MaxBodyBytes, &u); err != nil {
		writeDecodeError(w, err)
		return
	}

	p, err := h.svc.Update(ctx, chi.URLParam(r, "id"), u)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	respondData(w, http.StatusOK, p, map[string]interface{}{"message": "Product updated"})
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.limits.Timeout)
	defer cancel()

	if err := h.svc.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	respondMessage(w, http.StatusOK, "Product deleted")
}
