package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt 只处理前72字节，超长输入会被静默截断，这里显式拒绝
const maxPasswordBytes = 72

// ErrPasswordTooLong 密码超出bcrypt可处理的长度
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// Hash 生成密码哈希（注册与改密时使用）
func Hash(plain string) (string, error) {
	return HashWithCost(plain, bcrypt.DefaultCost)
}

// HashWithCost 以指定cost生成密码哈希
// cost 超出 bcrypt 支持范围时回退到默认值
func HashWithCost(plain string, cost int) (string, error) {
	if len(plain) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify 校验明文密码与哈希是否匹配
func Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
