// Package validation содержит функции валидации входных данных.
package validation

import "unicode"

// IsValidCPF проверяет контрольные цифры бразильского CPF.
// Принимает как форматированную запись (000.000.000-00), так и 11 цифр подряд.
func IsValidCPF(cpf string) bool {
	digits := make([]int, 0, 11)
	for _, ch := range cpf {
		switch {
		case unicode.IsDigit(ch):
			digits = append(digits, int(ch-'0'))
		case ch == '.' || ch == '-':
		default:
			return false
		}
	}

	if len(digits) != 11 {
		return false
	}

	// CPF из одинаковых цифр проходит контрольную сумму, но невалиден
	same := true
	for _, d := range digits[1:] {
		if d != digits[0] {
			same = false
			break
		}
	}
	if same {
		return false
	}

	return checkDigit(digits, 9) == digits[9] && checkDigit(digits, 10) == digits[10]
}

func checkDigit(digits []int, pos int) int {
	sum := 0
	for i := 0; i < pos; i++ {
		sum += digits[i] * (pos + 1 - i)
	}
	d := sum * 10 % 11
	if d == 10 {
		d = 0
	}
	return d
}
