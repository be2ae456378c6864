package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/certificate"
)

type certificateApi struct {
	svc *certificate.Service
}

type CertificateResponse struct {
	certificate.Certificate
	VerificationURL string `json:"verification_url"`
}

func registerCertificateAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *certificate.Service) {
	api := certificateApi{svc: svc}

	cg := g.Group("/certificates")

	// un-authed endpoints
	cg.GET("/verify/:code", api.verify)

	// authed endpoints
	cg.POST("/generate/:courseId", api.generate, jwt, studentMiddleware())
	cg.GET("/mine", api.mine, jwt, studentMiddleware())
}

func (api *certificateApi) response(cert certificate.Certificate) CertificateResponse {
	return CertificateResponse{Certificate: cert, VerificationURL: api.svc.VerificationURL(cert.VerificationCode)}
}

// Handlers

func (api *certificateApi) generate(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	cert, created, err := api.svc.IssueIfEligible(ctx.Request().Context(), claims.Subject, ctx.Param("courseId"))
	if err != nil {
		return errors.Wrap(err, "issuing certificate")
	}

	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	return ctx.JSON(code, api.response(cert))
}

func (api *certificateApi) verify(ctx echo.Context) error {
	view, err := api.svc.VerifyByCode(ctx.Request().Context(), ctx.Param("code"))
	if err != nil {
		return errors.Wrap(err, "verifying certificate")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *certificateApi) mine(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	certs, err := api.svc.QueryByStudent(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying certificates")
	}
	resp := make([]CertificateResponse, 0, len(certs))
	for _, cert := range certs {
		resp = append(resp, api.response(cert))
	}
	return ctx.JSON(http.StatusOK, resp)
}
