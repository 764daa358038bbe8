package sandbox

import (
	"errors"
	"fmt"
)

// Messages renders failures as the human-readable text returned to callers.
type Messages struct {
	prefix string
	kinds  map[ErrorKind]string
}

var catalogs = map[string]Messages{
	"en": {
		prefix: "server error",
		kinds: map[ErrorKind]string{
			KindNoPublicClass:   "no public class declaration found in source",
			KindCompileTimeout:  "compilation timed out",
			KindCompileError:    "compilation failed",
			KindArtifactMissing: "compiled artifact was not produced",
			KindExecuteTimeout:  "execution timed out",
			KindExecuteError:    "execution error",
			KindWorkspaceError:  "failed to prepare workspace",
			KindCanceled:        "request canceled",
			KindInternal:        "internal error",
		},
	},
	"zh": {
		prefix: "服务器错误",
		kinds: map[ErrorKind]string{
			KindNoPublicClass:   "代码中未找到public class声明",
			KindCompileTimeout:  "编译超时",
			KindCompileError:    "编译失败",
			KindArtifactMissing: "可执行文件未生成",
			KindExecuteTimeout:  "执行超时",
			KindExecuteError:    "执行错误",
			KindWorkspaceError:  "工作目录创建失败",
			KindCanceled:        "请求已取消",
			KindInternal:        "内部错误",
		},
	},
}

// MessagesFor returns the catalog for locale, falling back to English.
func MessagesFor(locale string) Messages {
	if m, ok := catalogs[locale]; ok {
		return m
	}
	return catalogs["en"]
}

// Describe converts err into "<prefix>: <stage>[: <detail>]".
func (m Messages) Describe(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if !errors.As(err, &e) {
		return fmt.Sprintf("%s: %s: %v", m.prefix, m.kinds[KindInternal], err)
	}

	stage := m.kinds[e.Kind]
	switch e.Kind {
	case KindCompileError:
		return fmt.Sprintf("%s: %s: %s", m.prefix, stage, e.Output)
	case KindExecuteError, KindWorkspaceError, KindInternal:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", m.prefix, stage, e.Err)
		}
	}
	return fmt.Sprintf("%s: %s", m.prefix, stage)
}
