package validators

import "go.mongodb.org/mongo-driver/bson"

var BerthValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"number",
			"category",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"number": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"category": bson.M{
				"bsonType": "string",
				"enum": []string{
					"long",
					"short",
				},
			},

			"status": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
