package validator

import (
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/game"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	// Initialize validation
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterValidation("difficulty", func(fl validator.FieldLevel) bool {
		_, err := game.ParseDifficulty(fl.Field().String())
		return err == nil
	})
	validate.RegisterValidation("mode", func(fl validator.FieldLevel) bool {
		_, err := game.ParseMode(fl.Field().String())
		return err == nil
	})
}

func GetValidator() *validator.Validate {
	return validate
}
