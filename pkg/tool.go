package pkg

// Contains check source have target
func Contains(slice []string, val string) bool {
	for _, v := range slice {
		if v == val {
			return true
		}
	}
	return false
}

// AppendIfMissing 只在 val 不存在時加入, 保持 set 語意
func AppendIfMissing(slice []string, val string) []string {
	if Contains(slice, val) {
		return slice
	}
	return append(slice, val)
}

// Remove 移除所有等於 val 的元素
func Remove(slice []string, val string) []string {
	out := slice[:0:0]
	for _, v := range slice {
		if v != val {
			out = append(out, v)
		}
	}
	return out
}
