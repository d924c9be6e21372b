package shortcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncode(t *testing.T) {
	t.Run("known values", func(t *testing.T) {
		cases := []struct {
			id   int64
			want string
		}{
			{0, "0"},
			{1, "1"},
			{9, "9"},
			{10, "A"},
			{35, "Z"},
			{36, "a"},
			{61, "z"},
			{62, "10"},
			{3843, "zz"},
			{3844, "100"},
		}

		for _, tc := range cases {
			assert.Equal(t, tc.want, Encode(tc.id))
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, Encode(123456789), Encode(123456789))
	})

	t.Run("injective over a range", func(t *testing.T) {
		seen := make(map[string]int64)

		for id := int64(0); id < 10000; id++ {
			code := Encode(id)

			prev, ok := seen[code]
			assert.Falsef(t, ok, "ids %d and %d both encode to %q", prev, id, code)
			seen[code] = id
		}
	})
}

func TestValidateCustomCode(t *testing.T) {
	t.Run("valid codes", func(t *testing.T) {
		for _, code := range []string{"abc", "my-link", "My_Link_42", "promo2024"} {
			assert.NoError(t, ValidateCustomCode(code))
		}
	})

	t.Run("too short", func(t *testing.T) {
		assert.ErrorIs(t, ValidateCustomCode("ab"), ErrInvalidLength)
	})

	t.Run("too long", func(t *testing.T) {
		long := make([]byte, MaxCustomCodeLength+1)
		for i := range long {
			long[i] = 'a'
		}

		assert.ErrorIs(t, ValidateCustomCode(string(long)), ErrInvalidLength)
	})

	t.Run("invalid characters", func(t *testing.T) {
		for _, code := range []string{"my link", "my/link", "café", "a.b.c"} {
			assert.ErrorIs(t, ValidateCustomCode(code), ErrInvalidCharacter)
		}
	})

	t.Run("reserved words", func(t *testing.T) {
		assert.ErrorIs(t, ValidateCustomCode("admin"), ErrReservedCode)
		assert.ErrorIs(t, ValidateCustomCode("API"), ErrReservedCode)
	})
}

func TestCollisionProbability(t *testing.T) {
	t.Run("trivial populations", func(t *testing.T) {
		assert.Zero(t, CollisionProbability(7, 0))
		assert.Zero(t, CollisionProbability(7, 1))
	})

	t.Run("monotonically increasing in population", func(t *testing.T) {
		prev := 0.0

		for _, n := range []int64{10, 100, 1000, 10000, 100000} {
			p := CollisionProbability(4, n)
			assert.Greater(t, p, prev)
			prev = p
		}
	})

	t.Run("monotonically decreasing in code length", func(t *testing.T) {
		prev := 1.1

		for length := 1; length <= 8; length++ {
			p := CollisionProbability(length, 100000)
			assert.Less(t, p, prev)
			prev = p
		}
	})

	t.Run("bounded by [0,1]", func(t *testing.T) {
		p := CollisionProbability(1, 1_000_000)
		assert.LessOrEqual(t, p, 1.0)
		assert.GreaterOrEqual(t, p, 0.0)
	})
}

func TestRecommendCodeLength(t *testing.T) {
	t.Run("returns minimal satisfying length", func(t *testing.T) {
		length := RecommendCodeLength(1_000_000, 0.01)

		assert.LessOrEqual(t, CollisionProbability(length, 1_000_000), 0.01)
		if length > 1 {
			assert.Greater(t, CollisionProbability(length-1, 1_000_000), 0.01)
		}
	})

	t.Run("exactly at threshold satisfies", func(t *testing.T) {
		threshold := CollisionProbability(6, 50000)
		length := RecommendCodeLength(50000, threshold)

		assert.LessOrEqual(t, length, 6)
		assert.LessOrEqual(t, CollisionProbability(length, 50000), threshold)
	})

	t.Run("larger population needs longer codes", func(t *testing.T) {
		small := RecommendCodeLength(1000, 0.001)
		large := RecommendCodeLength(100_000_000, 0.001)

		assert.GreaterOrEqual(t, large, small)
	})
}
