package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign 计算支付回调签名，签名内容为 orderRef|paymentRef
func Sign(orderRef, paymentRef, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderRef + "|" + paymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}

// verifySignature 常量时间比较签名
func verifySignature(orderRef, paymentRef, signature, secret string) bool {
	if orderRef == "" || paymentRef == "" || signature == "" {
		return false
	}
	expected := Sign(orderRef, paymentRef, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
