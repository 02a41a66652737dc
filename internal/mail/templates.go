package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	orderConfirmationTmpl = template.Must(template.New("order_confirmation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Thank you for your order, {{.Name}}!</h2>
  <p>Your payment has been received. Here is what you ordered:</p>
  <table cellpadding="6" style="border-collapse: collapse;">
    <tr><th align="left">Item</th><th align="left">Qty</th><th align="left">Price</th></tr>
    {{range .Items}}<tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{.Amount}}</td></tr>
    {{end}}
  </table>
  <p><strong>Total: {{.Total}}</strong></p>
  <p>We will ship your order shortly.</p>
  <p style="color: #999;">&copy; {{.Year}} No Sweat&trade;</p>
</body>
</html>`))

	inquiryNotificationTmpl = template.Must(template.New("wholesale_notification").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>New Wholesale Inquiry</h2>
  <p><strong>Name:</strong> {{.Name}}</p>
  <p><strong>Email:</strong> {{.Email}}</p>
  <p><strong>Company:</strong> {{.Company}}</p>
  <p><strong>Expected monthly units:</strong> {{.ExpectedUnits}}</p>
  <p><strong>Message:</strong></p>
  <p>{{.Message}}</p>
  <p style="color: #999;">&copy; {{.Year}} No Sweat&trade;</p>
</body>
</html>`))

	inquiryConfirmationTmpl = template.Must(template.New("wholesale_confirmation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Thank you for your inquiry, {{.Name}}!</h2>
  <p>We received your wholesale inquiry. Our team will reply soon.</p>
  <p style="color: #999;">&copy; {{.Year}} No Sweat&trade;</p>
</body>
</html>`))
)

type ConfirmationItem struct {
	Name     string
	Quantity int64
	Amount   string
}

type OrderConfirmationData struct {
	Name  string
	Items []ConfirmationItem
	Total string
	Year  int
}

type InquiryNotificationData struct {
	Name          string
	Email         string
	Company       string
	ExpectedUnits uint
	Message       string
	Year          int
}

type InquiryConfirmationData struct {
	Name string
	Year int
}

func RenderOrderConfirmation(data *OrderConfirmationData) (string, error) {
	return render(orderConfirmationTmpl, data)
}

func RenderInquiryNotification(data *InquiryNotificationData) (string, error) {
	return render(inquiryNotificationTmpl, data)
}

func RenderInquiryConfirmation(data *InquiryConfirmationData) (string, error) {
	return render(inquiryConfirmationTmpl, data)
}

func render(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s template: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// DisplayName derives a greeting name from the local part of an email
// address, title-cased. Falls back to a generic greeting for empty or
// malformed addresses.
func DisplayName(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		return "Customer"
	}
	return cases.Title(language.AmericanEnglish).String(local)
}
