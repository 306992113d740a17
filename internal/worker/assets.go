package worker

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"eventy/internal/storage"
)

// errAssetMissing 表示对象不存在：调用方应回退到占位渲染并记录 4004 告警。
type assetMissingError struct {
	key string
}

func (e *assetMissingError) Error() string {
	return fmt.Sprintf("asset %q does not exist", e.key)
}

// inlineObjectAsDataURI 读取对象并编码为 data URI，供无头浏览器离线渲染。
// 对象缺失返回 *assetMissingError；Bucket 缺失等系统错误原样返回。
func inlineObjectAsDataURI(ctx context.Context, storageClient *storage.Client, objectKey string) (string, error) {
	objectKey = strings.TrimSpace(objectKey)
	if objectKey == "" {
		return "", &assetMissingError{key: objectKey}
	}

	obj, err := storageClient.GetObject(ctx, objectKey)
	if err != nil {
		if storage.IsNoSuchBucket(err) {
			return "", fmt.Errorf("bucket does not exist: %w", err)
		}
		if storage.IsNoSuchKey(err) {
			return "", &assetMissingError{key: objectKey}
		}
		return "", fmt.Errorf("fetch asset %q: %w", objectKey, err)
	}
	defer func() {
		_ = obj.Close()
	}()

	contentType := "image/png"
	if stat, statErr := obj.Stat(); statErr == nil && strings.TrimSpace(stat.ContentType) != "" {
		contentType = stat.ContentType
	} else if statErr != nil {
		if storage.IsNoSuchBucket(statErr) {
			return "", fmt.Errorf("bucket does not exist: %w", statErr)
		}
		if storage.IsNoSuchKey(statErr) {
			return "", &assetMissingError{key: objectKey}
		}
		return "", fmt.Errorf("stat asset %q: %w", objectKey, statErr)
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		if storage.IsNoSuchKey(err) {
			return "", &assetMissingError{key: objectKey}
		}
		return "", fmt.Errorf("read asset %q: %w", objectKey, err)
	}

	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data)), nil
}
