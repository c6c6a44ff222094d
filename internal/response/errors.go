package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrReauthFailed       ErrCode = "REAUTH_FAILED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrNoOwner ErrCode = "NO_OWNER"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation        ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload    ErrCode = "INVALID_PAYLOAD"
	ErrInvalidDate       ErrCode = "INVALID_DATE"
	ErrInvalidFilter     ErrCode = "INVALID_FILTER"
	ErrAnswersIncomplete ErrCode = "ANSWERS_INCOMPLETE"
	ErrInvalidOption     ErrCode = "INVALID_OPTION"
	ErrInvalidIndex      ErrCode = "INVALID_INDEX"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrProfileNotFound ErrCode = "PROFILE_NOT_FOUND"
	ErrEmailInUse      ErrCode = "EMAIL_IN_USE"

	// ─── Exam-specific ─────────────────────────────────────────────────
	ErrNoQuestions      ErrCode = "NO_QUESTIONS"
	ErrAlreadySubmitted ErrCode = "ALREADY_SUBMITTED"
	ErrFetchFailed      ErrCode = "FETCH_FAILED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns the message shown to students for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email yoki parol noto'g'ri."
	case ErrSessionInvalidated:
		return "Sessiya tugagan. Iltimos, qaytadan kiring."
	case ErrTokenRequired:
		return "Avtorizatsiya tokeni talab qilinadi."
	case ErrTokenInvalid:
		return "Avtorizatsiya tokeni yaroqsiz."
	case ErrReauthFailed:
		return "Joriy parol noto'g'ri."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrNoOwner:
		return "Siz hali hech qaysi o'quv markaziga biriktirilmagansiz."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Ma'lumotlar noto'g'ri. Iltimos, maydonlarni tekshiring."
	case ErrInvalidPayload:
		return "So'rov ma'lumotlari yaroqsiz."
	case ErrInvalidDate:
		return "Sana kk.oo.yyyy ko'rinishida bo'lishi kerak."
	case ErrInvalidFilter:
		return "Filtr noma'lum."
	case ErrAnswersIncomplete:
		return "Barchasi belgilanmadi!"
	case ErrInvalidOption:
		return "Bunday javob varianti yo'q."
	case ErrInvalidIndex:
		return "Bunday savol yo'q."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Topilmadi."
	case ErrProfileNotFound:
		return "Talaba profili topilmadi."
	case ErrEmailInUse:
		return "Bu email allaqachon ishlatilmoqda."

	// ─── Exam-specific ─────────────────────────────────────────────────
	case ErrNoQuestions:
		return "Hali savol qo'shilmagan."
	case ErrAlreadySubmitted:
		return "Javoblar allaqachon yuborilgan."
	case ErrFetchFailed:
		return "Ma'lumotlarni yuklab bo'lmadi. Keyinroq urinib ko'ring."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "So'rovlar juda ko'p. Birozdan so'ng urinib ko'ring."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Serverda ichki xatolik yuz berdi."
	default:
		return "Kutilmagan xatolik yuz berdi."
	}
}
