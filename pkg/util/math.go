package util

// CeilDiv returns ceil(a / b) for non-negative a and positive b.
// CeilDiv 整数向上取整除法，b 必须为正数
func CeilDiv(a, b int) int {
	if b <= 0 {
		panic("division by zero")
	}
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
