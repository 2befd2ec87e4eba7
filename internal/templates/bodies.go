package templates

import (
	htmltmpl "html/template"
	texttmpl "text/template"
)

var (
	appointmentText = texttmpl.Must(texttmpl.New("appointment").Parse(`New appointment booked at {{.Business}}

Customer: {{.CustomerName}}
Email: {{.CustomerEmail}}
Phone: {{.Phone}}
Services: {{.Services}}
Date: {{.Date}}
Time: {{.Time}}
Total: {{.Amount}}
Booking ID: {{.BookingID}}
Location: {{.Location}}
{{if .WhatsApp}}
Message the customer on WhatsApp: {{.WhatsApp}}
{{end}}`))

	appointmentHTML = htmltmpl.Must(htmltmpl.New("appointment").Parse(`<h2>New appointment booked at {{.Business}}</h2>
<table>
<tr><td><strong>Customer</strong></td><td>{{.CustomerName}}</td></tr>
<tr><td><strong>Email</strong></td><td>{{.CustomerEmail}}</td></tr>
<tr><td><strong>Phone</strong></td><td>{{.Phone}}</td></tr>
<tr><td><strong>Services</strong></td><td>{{.Services}}</td></tr>
<tr><td><strong>Date</strong></td><td>{{.Date}}</td></tr>
<tr><td><strong>Time</strong></td><td>{{.Time}}</td></tr>
<tr><td><strong>Total</strong></td><td>{{.Amount}}</td></tr>
<tr><td><strong>Booking ID</strong></td><td>{{.BookingID}}</td></tr>
<tr><td><strong>Location</strong></td><td>{{.Location}}</td></tr>
</table>
{{if .WhatsApp}}<p><a href="{{.WhatsApp}}">Message the customer on WhatsApp</a></p>{{end}}
`))

	contactText = texttmpl.Must(texttmpl.New("contact").Parse(`New contact inquiry for {{.Business}}

Name: {{.Name}}
Email: {{.Email}}
Phone: {{.Phone}}
Service of interest: {{.Service}}

Message:
{{.Message}}
`))

	contactHTML = htmltmpl.Must(htmltmpl.New("contact").Parse(`<h2>New contact inquiry for {{.Business}}</h2>
<p><strong>Name:</strong> {{.Name}}<br>
<strong>Email:</strong> {{.Email}}<br>
<strong>Phone:</strong> {{.Phone}}<br>
<strong>Service of interest:</strong> {{.Service}}</p>
<p style="white-space: pre-wrap">{{.Message}}</p>
`))

	resetText = texttmpl.Must(texttmpl.New("password_reset").Parse(`Hi {{.Name}},

We received a request to reset your {{.Business}} password.

Your reset code: {{.Token}}

This code is valid for {{.ValidMinutes}} minutes (until {{.ExpiresAt}}) and can only be used once.
If you did not ask for a reset you can ignore this email.
{{if .OperatorPhone}}
Need help? Call us on {{.OperatorPhone}}.
{{end}}`))

	resetHTML = htmltmpl.Must(htmltmpl.New("password_reset").Parse(`<p>Hi {{.Name}},</p>
<p>We received a request to reset your {{.Business}} password.</p>
<p>Your reset code: <strong>{{.Token}}</strong></p>
<p>This code is valid for {{.ValidMinutes}} minutes (until {{.ExpiresAt}}) and can only be used once.
If you did not ask for a reset you can ignore this email.</p>
{{if .OperatorPhone}}<p>Need help? Call us on {{.OperatorPhone}}.</p>{{end}}
`))

	paymentText = texttmpl.Must(texttmpl.New("payment_confirmation").Parse(`Payment reported for {{.Business}}

Order ID: {{.OrderID}}
Booking ID: {{.BookingID}}
Customer: {{.Customer}}
Amount: {{.Amount}}
Paid with: {{.Method}}
Payment reference: {{.Reference}}
Confirmed at: {{.ConfirmedAt}}

The customer confirmed this payment in their UPI app. It has not been verified with the bank.
`))

	paymentHTML = htmltmpl.Must(htmltmpl.New("payment_confirmation").Parse(`<h2>Payment reported for {{.Business}}</h2>
<table>
<tr><td><strong>Order ID</strong></td><td>{{.OrderID}}</td></tr>
<tr><td><strong>Booking ID</strong></td><td>{{.BookingID}}</td></tr>
<tr><td><strong>Customer</strong></td><td>{{.Customer}}</td></tr>
<tr><td><strong>Amount</strong></td><td>{{.Amount}}</td></tr>
<tr><td><strong>Paid with</strong></td><td>{{.Method}}</td></tr>
<tr><td><strong>Payment reference</strong></td><td>{{.Reference}}</td></tr>
<tr><td><strong>Confirmed at</strong></td><td>{{.ConfirmedAt}}</td></tr>
</table>
<p><em>The customer confirmed this payment in their UPI app. It has not been verified with the bank.</em></p>
`))
)
