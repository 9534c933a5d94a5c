package razorpay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignDeterministic(t *testing.T) {
	a := Sign("secret", "order_1", "pay_1")
	b := Sign("secret", "order_1", "pay_1")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // hex SHA-256
}

func TestVerifySignature(t *testing.T) {
	sig := Sign("secret", "order_1", "pay_1")
	assert.True(t, VerifySignature("secret", "order_1", "pay_1", sig))

	assert.False(t, VerifySignature("other-secret", "order_1", "pay_1", sig))
	assert.False(t, VerifySignature("secret", "order_2", "pay_1", sig))
	assert.False(t, VerifySignature("secret", "order_1", "pay_2", sig))
	assert.False(t, VerifySignature("secret", "order_1", "pay_1", ""))
}

func TestVerifySignatureSingleCharacterMutation(t *testing.T) {
	sig := []byte(Sign("secret", "order_1", "pay_1"))
	for i := range sig {
		mutated := append([]byte(nil), sig...)
		if mutated[i] == '0' {
			mutated[i] = '1'
		} else {
			mutated[i] = '0'
		}
		assert.False(t, VerifySignature("secret", "order_1", "pay_1", string(mutated)),
			"mutation at index %d must fail", i)
	}
}

func TestSeparatorIsPartOfTheMessage(t *testing.T) {
	// "a|bc" and "ab|c" must not collide.
	assert.NotEqual(t, Sign("secret", "a", "bc"), Sign("secret", "ab", "c"))
}
