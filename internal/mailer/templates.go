package mailer

import (
	"html/template"

	"github.com/antiekhuis/antiekhuis-api/internal/model"
)

type shipmentData struct {
	StoreName string
	Order     *model.Order
}

type productData struct {
	StoreName  string
	Product    *model.Product
	ProductURL string
	OldPrice   string
}

var baseStyle = `
<style>
  body { font-family: Georgia, serif; background-color: #faf7f2; padding: 20px; color: #3a2f28; }
  .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; padding: 30px; border: 1px solid #e3dccf; }
  .logo { font-size: 22px; font-weight: bold; letter-spacing: 2px; text-align: center; margin-bottom: 24px; }
  .box { background-color: #faf7f2; padding: 16px; margin: 20px 0; border: 1px solid #e3dccf; }
  table { width: 100%; border-collapse: collapse; }
  td { padding: 6px 0; vertical-align: top; }
  .thumb { width: 80px; padding-right: 12px; }
  .thumb img { display: block; width: 72px; border: 1px solid #e3dccf; }
  .right { text-align: right; }
  .footer { text-align: center; margin-top: 24px; color: #8a7f72; font-size: 12px; }
</style>`

var shipmentTmpl = template.Must(template.New("shipment").Parse(`<!DOCTYPE html>
<html><head>` + baseStyle + `</head><body><div class="container">
  <div class="logo">{{.StoreName}}</div>
  <h2>Your order is on its way</h2>
  <p>Order <strong>{{.Order.OrderNumber}}</strong> has shipped to:</p>
  <div class="box">
    {{.Order.ShippingName}}<br>
    {{.Order.ShippingStreet}}<br>
    {{.Order.ShippingPostal}} {{.Order.ShippingCity}}, {{.Order.ShippingCountry}}
  </div>
  {{if .Order.TrackingNumber}}
  <div class="box">
    <strong>Tracking</strong><br>
    {{if .Order.CarrierName}}{{.Order.CarrierName}}: {{end}}{{.Order.TrackingNumber}}<br>
    {{if .Order.TrackingURL}}<a href="{{.Order.TrackingURL}}">Track your shipment</a>{{end}}
  </div>
  {{end}}
  <table>
    {{range .Order.Items}}
    <tr>
      <td class="thumb">{{if .ProductImage}}<img src="{{.ProductImage}}" alt="{{.Title}}">{{end}}</td>
      <td>{{.Title}}{{if gt .Quantity 1}} &times; {{.Quantity}}{{end}}</td>
      <td class="right">&euro; {{.UnitPrice}}</td>
    </tr>
    {{end}}
    <tr><td colspan="2">Shipping</td><td class="right">&euro; {{.Order.ShippingCost}}</td></tr>
    <tr><td colspan="2"><strong>Total</strong></td><td class="right"><strong>&euro; {{.Order.Total}}</strong></td></tr>
  </table>
  <div class="footer">{{.StoreName}} &middot; This is an automated email.</div>
</div></body></html>`))

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html><head>` + baseStyle + `</head><body><div class="container">
  <div class="logo">{{.StoreName}}</div>
  <h2>Thank you for your order</h2>
  <p>We have received your order <strong>{{.Order.OrderNumber}}</strong> and payment.</p>
  <table>
    {{range .Order.Items}}
    <tr>
      <td class="thumb">{{if .ProductImage}}<img src="{{.ProductImage}}" alt="{{.Title}}">{{end}}</td>
      <td>{{.Title}}{{if gt .Quantity 1}} &times; {{.Quantity}}{{end}}</td>
      <td class="right">&euro; {{.UnitPrice}}</td>
    </tr>
    {{end}}
    <tr><td colspan="2">Shipping</td><td class="right">&euro; {{.Order.ShippingCost}}</td></tr>
    <tr><td colspan="2"><strong>Total</strong></td><td class="right"><strong>&euro; {{.Order.Total}}</strong></td></tr>
  </table>
  <p>We will let you know as soon as your order ships.</p>
  <div class="footer">{{.StoreName}} &middot; This is an automated email.</div>
</div></body></html>`))

var backInStockTmpl = template.Must(template.New("backInStock").Parse(`<!DOCTYPE html>
<html><head>` + baseStyle + `</head><body><div class="container">
  <div class="logo">{{.StoreName}}</div>
  <h2>Back in stock</h2>
  <p><strong>{{.Product.NameEN}}</strong> from your wishlist is available again.</p>
  <p>Pieces like this rarely stay long &mdash; <a href="{{.ProductURL}}">view it now</a>.</p>
  <div class="footer">{{.StoreName}} &middot; You receive this because of your wishlist settings.</div>
</div></body></html>`))

var soldTmpl = template.Must(template.New("sold").Parse(`<!DOCTYPE html>
<html><head>` + baseStyle + `</head><body><div class="container">
  <div class="logo">{{.StoreName}}</div>
  <h2>A wishlist piece has sold</h2>
  <p><strong>{{.Product.NameEN}}</strong> has found a new home.</p>
  <p>We will notify you if it ever returns. <a href="{{.ProductURL}}">See similar pieces</a>.</p>
  <div class="footer">{{.StoreName}} &middot; You receive this because of your wishlist settings.</div>
</div></body></html>`))

var priceDropTmpl = template.Must(template.New("priceDrop").Parse(`<!DOCTYPE html>
<html><head>` + baseStyle + `</head><body><div class="container">
  <div class="logo">{{.StoreName}}</div>
  <h2>Price drop</h2>
  <p><strong>{{.Product.NameEN}}</strong> is now &euro; {{.Product.Price}} (was &euro; {{.OldPrice}}).</p>
  <p><a href="{{.ProductURL}}">View the piece</a>.</p>
  <div class="footer">{{.StoreName}} &middot; You receive this because of your wishlist settings.</div>
</div></body></html>`))
