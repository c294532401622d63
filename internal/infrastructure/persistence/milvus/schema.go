// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	fieldRowID  = "row_id"
	fieldVector = "vector"
)

// VectorCollectionSchema 向量集合 Schema。
// 集合只存 row_id 与向量；row_id 是稠密的 0 起序号，其余元数据
// 按行号对齐存放在索引目录的 jsonl 文件里。
func VectorCollectionSchema(name string, dimension int) *entity.Schema {
	return &entity.Schema{
		CollectionName: name,
		Description:    "Row-aligned embedding vectors for drama retrieval",
		Fields: []*entity.Field{
			{
				Name:       fieldRowID,
				DataType:   entity.FieldTypeInt64,
				PrimaryKey: true,
				AutoID:     false,
			},
			{
				Name:     fieldVector,
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", dimension),
				},
			},
		},
	}
}
