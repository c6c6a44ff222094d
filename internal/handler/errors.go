package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/tutor-portal/internal/examflow"
	"github.com/stemsi/tutor-portal/internal/repository"
	"github.com/stemsi/tutor-portal/internal/response"
	"github.com/stemsi/tutor-portal/internal/service"
)

// fail maps a service error onto its API code. Unknown errors are logged
// and reported as internal.
func fail(c *gin.Context, log zerolog.Logger, err error) {
	var incomplete *examflow.IncompleteError
	var fetch *examflow.FetchError

	switch {
	case errors.As(err, &incomplete):
		fields := make(map[string]string, len(incomplete.Unanswered))
		for _, i := range incomplete.Unanswered {
			fields[strconv.Itoa(i)] = "required"
		}
		response.FailWithFields(c, http.StatusBadRequest, response.ErrAnswersIncomplete, fields)
	case errors.As(err, &fetch):
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Backend fetch failed")
		response.Fail(c, http.StatusBadGateway, response.ErrFetchFailed)

	case errors.Is(err, examflow.ErrAlreadySubmitted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
	case errors.Is(err, examflow.ErrNoQuestions):
		response.Fail(c, http.StatusBadRequest, response.ErrNoQuestions)
	case errors.Is(err, examflow.ErrInvalidOption):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidOption)
	case errors.Is(err, examflow.ErrQuestionIndex):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidIndex)

	case errors.Is(err, service.ErrGroupNotFound), errors.Is(err, service.ErrExamNotFound),
		errors.Is(err, repository.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrProfileNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrProfileNotFound)
	case errors.Is(err, service.ErrNoOwner):
		response.Fail(c, http.StatusForbidden, response.ErrNoOwner)
	case errors.Is(err, service.ErrInvalidDate):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidDate)
	case errors.Is(err, service.ErrEmailInUse):
		response.Fail(c, http.StatusConflict, response.ErrEmailInUse)
	case errors.Is(err, service.ErrReauthFailed):
		response.Fail(c, http.StatusUnauthorized, response.ErrReauthFailed)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)

	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
