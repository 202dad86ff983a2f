package auth

import (
	"context"
	"net/http"

	"github.com/jrsteele09/farm-admin/gateway"
)

type Client struct {
	api gateway.Doer
}

func NewClient(api gateway.Doer) *Client {
	return &Client{api: api}
}

// SendOTP asks the API to text a one-time code to req.PhoneNumber. The number is normalized
// first and rejected without a request when it cannot be.
func (c *Client) SendOTP(ctx context.Context, req SendOTPRequest) (SendOTPResponse, error) {
	phone, err := NormalizePhone(req.PhoneNumber)
	if err != nil {
		return SendOTPResponse{}, &FieldError{Field: FieldPhone, Err: err}
	}
	req.PhoneNumber = phone

	var resp SendOTPResponse
	err = c.api.Do(ctx, http.MethodPost, "/auth/send-otp", nil, req, &resp)
	return resp, err
}

func (c *Client) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (AuthResponse, error) {
	phone, err := NormalizePhone(req.PhoneNumber)
	if err != nil {
		return AuthResponse{}, &FieldError{Field: FieldPhone, Err: err}
	}
	req.PhoneNumber = phone
	code, err := ValidateCode(req.Code)
	if err != nil {
		return AuthResponse{}, &FieldError{Field: FieldCode, Err: err}
	}
	req.Code = code

	var resp AuthResponse
	err = c.api.Do(ctx, http.MethodPost, "/auth/verify-otp", nil, req, &resp)
	return resp, err
}

func (c *Client) Login(ctx context.Context, req PasswordLogin) (AuthResponse, error) {
	if err := ValidateCredentials(req.Username, req.Password); err != nil {
		return AuthResponse{}, err
	}
	var resp AuthResponse
	err := c.api.Do(ctx, http.MethodPost, "/auth/login", nil, req, &resp)
	return resp, err
}
