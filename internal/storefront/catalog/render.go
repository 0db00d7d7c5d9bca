package catalog

import (
	"fmt"
	"html/template"
	"io"
)

const fallbackImage = "https://placehold.co/250x250/111/FFF?text=IMG"

var gridTmpl = template.Must(template.New("grid").Parse(`{{if .Products}}
{{- range .Products}}
<div class="Pro" data-id="{{.ID}}" data-name="{{.Name}}" data-category="{{.Category}}" data-price="{{.Price.String}}" data-image="{{.Image}}">
  <img src="{{.Image}}" onerror="this.src='{{$.Fallback}}'" alt="{{.Name}}">
  <div class="des">
    <span>{{.Name}}</span>
    <h5>{{.Category}}</h5>
    <h4>{{.Price.Format}}</h4>
  </div>
  <a href="#"><i class="fa-solid fa-cart-shopping cart"></i></a>
</div>
{{- end}}
{{else}}
<div class="not-found">
  <h3>Product Not Found</h3>
  <p>No products match "<strong>{{.Query}}</strong>"</p>
  <a href="shop.html" class="normal">View All Products</a>
</div>
{{end}}`))

// Render writes the product grid for query; zero matches render the
// "Product Not Found" placeholder.
func (c *Catalog) Render(w io.Writer, query string) error {
	data := struct {
		Products interface{}
		Query    string
		Fallback string
	}{
		Query:    query,
		Fallback: fallbackImage,
	}
	if matches := c.Search(query); len(matches) > 0 {
		data.Products = matches
	}
	if err := gridTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render catalog: %w", err)
	}
	return nil
}
