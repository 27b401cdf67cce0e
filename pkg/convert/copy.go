package convert

import (
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

// Copy deep copies matching fields from src into dst
// Copy 将 src 中同名字段深拷贝到 dst
func Copy(dst, src interface{}) error {
	if err := copier.CopyWithOption(dst, src, copier.Option{DeepCopy: true}); err != nil {
		return errors.Wrap(err, "copy struct failed")
	}
	return nil
}
