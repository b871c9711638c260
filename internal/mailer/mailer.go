package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/shopspring/decimal"
	"gopkg.in/gomail.v2"

	"github.com/antiekhuis/antiekhuis-api/internal/model"
)

// Mailer sends the store's transactional email. Implementations must be
// safe to call from request handlers and workers; failures are the
// caller's problem to log or surface.
type Mailer interface {
	SendShipmentEmail(to string, order *model.Order) error
	SendOrderConfirmation(to string, order *model.Order) error
	SendBackInStock(to string, product *model.Product) error
	SendProductSold(to string, product *model.Product) error
	SendPriceDrop(to string, product *model.Product, oldPrice decimal.Decimal) error
}

type SMTPMailer struct {
	dialer    *gomail.Dialer
	from      string
	storeName string
	baseURL   string
}

func NewSMTPMailer(host string, port int, user, password, from, storeName, baseURL string) *SMTPMailer {
	return &SMTPMailer{
		dialer:    gomail.NewDialer(host, port, user, password),
		from:      from,
		storeName: storeName,
		baseURL:   baseURL,
	}
}

func (m *SMTPMailer) send(to, subject string, tmpl *template.Template, data any) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render mail body: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body.String())

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func (m *SMTPMailer) SendShipmentEmail(to string, order *model.Order) error {
	subject := fmt.Sprintf("Your order %s has shipped - %s", order.OrderNumber, m.storeName)
	return m.send(to, subject, shipmentTmpl, shipmentData{
		StoreName: m.storeName,
		Order:     order,
	})
}

func (m *SMTPMailer) SendOrderConfirmation(to string, order *model.Order) error {
	subject := fmt.Sprintf("Order confirmation %s - %s", order.OrderNumber, m.storeName)
	return m.send(to, subject, confirmationTmpl, shipmentData{
		StoreName: m.storeName,
		Order:     order,
	})
}

func (m *SMTPMailer) SendBackInStock(to string, product *model.Product) error {
	subject := fmt.Sprintf("Back in stock: %s - %s", product.NameEN, m.storeName)
	return m.send(to, subject, backInStockTmpl, productData{
		StoreName:  m.storeName,
		Product:    product,
		ProductURL: m.productURL(product),
	})
}

func (m *SMTPMailer) SendProductSold(to string, product *model.Product) error {
	subject := fmt.Sprintf("Sold: %s - %s", product.NameEN, m.storeName)
	return m.send(to, subject, soldTmpl, productData{
		StoreName:  m.storeName,
		Product:    product,
		ProductURL: m.productURL(product),
	})
}

func (m *SMTPMailer) SendPriceDrop(to string, product *model.Product, oldPrice decimal.Decimal) error {
	subject := fmt.Sprintf("Price drop: %s - %s", product.NameEN, m.storeName)
	return m.send(to, subject, priceDropTmpl, productData{
		StoreName:  m.storeName,
		Product:    product,
		ProductURL: m.productURL(product),
		OldPrice:   oldPrice.StringFixed(2),
	})
}

func (m *SMTPMailer) productURL(product *model.Product) string {
	return m.baseURL + "/products/" + product.Slug
}
