package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const attemptAudience = "exam-attempt"

var ErrInvalidAttemptToken = errors.New("invalid attempt token")

// AttemptClaims record when a student opened an exam and the latest time a
// submission is accepted.
type AttemptClaims struct {
	jwt.RegisteredClaims
	ExamID    uint      `json:"examId"`
	StartedAt time.Time `json:"startedAt"`
	Deadline  time.Time `json:"deadline"`
}

// IssueAttempt signs an attempt ticket for the student opening an exam. The ticket
// itself stays verifiable for a day after the deadline so a late submission is
// reported as late rather than as malformed.
func (t *TokenIssuer) IssueAttempt(studentID, examID uint, duration, grace time.Duration) (string, *AttemptClaims, error) {
	now := NowFunc()
	deadline := now.Add(duration + grace)
	claims := &AttemptClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatUint(uint64(studentID), 10),
			Audience:  jwt.ClaimStrings{attemptAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(deadline.Add(24 * time.Hour)),
		},
		ExamID:    examID,
		StartedAt: now,
		Deadline:  deadline,
	}
	token, err := t.sign(claims)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// VerifyAttempt checks the ticket signature and that it belongs to the given
// student and exam. Deadline comparison is left to the caller.
func (t *TokenIssuer) VerifyAttempt(tokenString string, studentID, examID uint) (*AttemptClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidAttemptToken
	}

	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
	claims := &AttemptClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidAttemptToken
	}
	if !claims.VerifyAudience(attemptAudience, true) {
		return nil, ErrInvalidAttemptToken
	}
	if claims.Subject != strconv.FormatUint(uint64(studentID), 10) || claims.ExamID != examID {
		return nil, ErrInvalidAttemptToken
	}
	return claims, nil
}
