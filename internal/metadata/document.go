package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Document 是保留键顺序的 JSON 对象。
//
// 值的表示：
// - 对象：*Document（嵌套对象同样保留键顺序）
// - 数组：[]any
// - 数字：json.Number（原样保留，不经过 float64）
// - 字符串 / bool / nil
//
// 不变量：keys 与 vals 的键集合一致，keys 无重复。
type Document struct {
	keys []string
	vals map[string]any
}

// DecodeError 表示模板不是合法的 JSON 对象。
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("元数据 JSON 无效：%v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsDecodeError 判断 err 是否为元数据解析失败。
func IsDecodeError(err error) bool {
	var e *DecodeError
	return errors.As(err, &e)
}

func New() *Document {
	return &Document{vals: map[string]any{}}
}

func (d *Document) Len() int { return len(d.keys) }

// Keys 返回键的副本（按出现顺序）。
func (d *Document) Keys() []string {
	return append([]string(nil), d.keys...)
}

func (d *Document) Has(key string) bool {
	_, ok := d.vals[key]
	return ok
}

func (d *Document) Get(key string) (any, bool) {
	v, ok := d.vals[key]
	return v, ok
}

// GetString 仅在键存在且值为字符串时返回 ok=true。
func (d *Document) GetString(key string) (string, bool) {
	v, ok := d.vals[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Set 写入 key。已存在的键保持原位置，新键追加到末尾。
func (d *Document) Set(key string, v any) {
	if d.vals == nil {
		d.vals = map[string]any{}
	}
	if _, ok := d.vals[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.vals[key] = v
}

// Clone 深拷贝整个文档（嵌套对象与数组不与原文档共享）。
func (d *Document) Clone() *Document {
	out := &Document{
		keys: append([]string(nil), d.keys...),
		vals: make(map[string]any, len(d.vals)),
	}
	for k, v := range d.vals {
		out.vals[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case *Document:
		return x.Clone()
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = cloneValue(x[i])
		}
		return out
	default:
		return v
	}
}

// ReadFile 读取并解析元数据文件。
func ReadFile(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(b)
}

// Decode 解析一个 JSON 对象（顶层必须是对象），保留键顺序。
// 重复键：值以最后一次为准，位置以首次出现为准。
func Decode(b []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, &DecodeError{Err: fmt.Errorf("顶层必须是 JSON 对象，实际是 %v", tok)}
	}

	d, err := decodeObject(dec)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errors.New("对象之后存在多余内容")
		}
		return nil, &DecodeError{Err: err}
	}
	return d, nil
}

// decodeObject 在读到 '{' 之后调用，消费到匹配的 '}'。
func decodeObject(dec *json.Decoder) (*Document, error) {
	d := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("期望对象键，实际是 %v", tok)
		}
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		d.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return d, nil
}

func decodeArray(dec *json.Decoder) ([]any, error) {
	out := []any{}
	for dec.More() {
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); ok {
		switch delim {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("意外的分隔符 %q", delim)
		}
	}
	return tok, nil
}

// Encode 输出 2 空格缩进的 UTF-8 JSON（末尾带换行）。
// 非 ASCII 字符与 <>& 原样输出，不转义。
func Encode(d *Document) ([]byte, error) {
	var compact bytes.Buffer
	if err := d.writeTo(&compact); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func (d *Document) writeTo(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeScalar(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := writeValue(buf, d.vals[k]); err != nil {
			return fmt.Errorf("编码字段 %q 失败：%w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeValue(buf *bytes.Buffer, v any) error {
	switch x := v.(type) {
	case *Document:
		return x.writeTo(buf)
	case []any:
		buf.WriteByte('[')
		for i := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, x[i]); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case json.Number:
		// 来自解码器的数字已校验过；手工构造的值也要保证合法。
		if !json.Valid([]byte(x)) {
			return fmt.Errorf("非法数字 %q", string(x))
		}
		buf.WriteString(string(x))
		return nil
	default:
		return writeScalar(buf, v)
	}
}

func writeScalar(buf *bytes.Buffer, v any) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encoder 会追加换行。
	buf.Write(unescapeLineSeparators(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'})))
	return nil
}

// unescapeLineSeparators 把 Encoder 强制转义的 \u2028 / \u2029 还原为原字符。
// 只处理真正的转义序列：前面是 "\\" 的 "u2028" 属于字面文本，保持不变。
func unescapeLineSeparators(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u202`)) {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 >= len(b) {
			out = append(out, b[i])
			continue
		}
		if i+5 < len(b) && b[i+1] == 'u' && string(b[i+2:i+5]) == "202" && (b[i+5] == '8' || b[i+5] == '9') {
			if b[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			continue
		}
		// 其他转义：整体复制两个字节，避免把 "\\u2028" 的第二个反斜杠当成转义起点。
		out = append(out, b[i], b[i+1])
		i++
	}
	return out
}
